package verify

import (
	"context"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/rotisserie/eris"
)

// DefaultServers are queried in order when no resolver is configured.
var DefaultServers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// Resolver answers whether a domain can receive mail.
type Resolver interface {
	// MailHost reports whether domain has MX records, or failing that an A
	// record. A domain that does not exist is (false, nil); an error means
	// the question could not be answered.
	MailHost(ctx context.Context, domain string) (bool, error)
}

// DNSResolver queries DNS servers directly.
type DNSResolver struct {
	servers []string
	client  *dns.Client
}

// NewDNSResolver creates a resolver for servers ("host:port"). An empty list
// uses DefaultServers.
func NewDNSResolver(servers []string, timeout time.Duration) *DNSResolver {
	if len(servers) == 0 {
		servers = DefaultServers
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	norm := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		norm = append(norm, s)
	}
	return &DNSResolver{servers: norm, client: &dns.Client{Timeout: timeout}}
}

// MailHost implements Resolver.
func (r *DNSResolver) MailHost(ctx context.Context, domain string) (bool, error) {
	ok, err := r.has(ctx, domain, dns.TypeMX)
	if err != nil || ok {
		return ok, err
	}
	return r.has(ctx, domain, dns.TypeA)
}

func (r *DNSResolver) has(ctx context.Context, domain string, qtype uint16) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		switch resp.Rcode {
		case dns.RcodeNameError:
			return false, nil
		case dns.RcodeSuccess:
			for _, rr := range resp.Answer {
				if rr.Header().Rrtype == qtype {
					return true, nil
				}
			}
			return false, nil
		default:
			lastErr = eris.Errorf("verify: %s returned %s", server, dns.RcodeToString[resp.Rcode])
		}
	}
	return false, eris.Wrapf(lastErr, "verify: lookup %s", domain)
}
