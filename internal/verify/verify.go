// Package verify classifies lead email addresses with a syntax check and a
// DNS mail-host lookup. It never contacts mail servers.
package verify

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-cli/internal/contact"
	"github.com/sells-group/lead-cli/internal/model"
)

// Verifier classifies addresses. Domain lookups are memoized for the
// lifetime of the Verifier.
type Verifier struct {
	resolver Resolver

	mu      sync.Mutex
	domains map[string]domainState
}

type domainState struct {
	ok  bool
	err bool
}

// New creates a Verifier.
func New(r Resolver) *Verifier {
	return &Verifier{resolver: r, domains: make(map[string]domainState)}
}

// Status classifies one address:
//   - invalid: malformed, or the domain has no mail host
//   - risky: a role address on a domain that accepts mail
//   - valid: a personal address on a domain that accepts mail
//   - unchecked: the lookup failed
func (v *Verifier) Status(ctx context.Context, email string) model.EmailStatus {
	email = strings.ToLower(strings.TrimSpace(email))
	if !contact.ValidEmail(email) {
		return model.EmailInvalid
	}
	domain := email[strings.LastIndexByte(email, '@')+1:]

	st := v.lookup(ctx, domain)
	switch {
	case st.err:
		return model.EmailUnchecked
	case !st.ok:
		return model.EmailInvalid
	case contact.IsGeneric(email):
		return model.EmailRisky
	default:
		return model.EmailValid
	}
}

func (v *Verifier) lookup(ctx context.Context, domain string) domainState {
	v.mu.Lock()
	st, ok := v.domains[domain]
	v.mu.Unlock()
	if ok {
		return st
	}

	found, err := v.resolver.MailHost(ctx, domain)
	if err != nil {
		zap.L().Debug("verify: lookup failed", zap.String("domain", domain), zap.Error(err))
		// Failures are not memoized so a later address on the domain retries.
		return domainState{err: true}
	}
	st = domainState{ok: found}

	v.mu.Lock()
	v.domains[domain] = st
	v.mu.Unlock()
	return st
}

// Leads sets EmailStatus on every lead from its primary email, running at
// most concurrency lookups at a time. Leads without an email stay unchecked.
// It returns the number of leads checked.
func (v *Verifier) Leads(ctx context.Context, leads []model.Lead, concurrency int) (int, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	var checked atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range leads {
		email, ok := leads[i].PrimaryEmail()
		if !ok {
			leads[i].EmailStatus = model.EmailUnchecked
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// Each goroutine writes a distinct element.
			leads[i].EmailStatus = v.Status(gctx, email)
			checked.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(checked.Load()), err
}
