// Package screen performs lexical checks on domains submitted for monitoring.
//
// Screening never touches the network. A domain is rejected when it is not a
// registrable name under the public suffix list, when it (or its registrable
// parent) is on the blocklist, or when its registrable label is one edit away
// from a label the service already protects.
package screen

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// MinLabelLen is the shortest label compared for lookalikes. Shorter labels
// sit one edit away from too many legitimate names.
const MinLabelLen = 4

// DefaultBrands are labels protected even when no CSE domain carries them.
var DefaultBrands = []string{
	"airtel", "vodafone", "bsnl",
	"hdfc", "icici", "axis", "kotak", "canara",
	"google", "facebook", "amazon", "microsoft", "apple", "netflix",
	"twitter", "instagram", "whatsapp", "linkedin", "youtube",
	"paytm", "phonepe", "gpay", "bhim", "paypal", "razorpay",
	"uidai", "epfo", "nsdl", "irctc",
	"flipkart", "myntra", "swiggy", "zomato",
}

// Verdict is the result of screening one domain.
type Verdict struct {
	Malicious bool   `json:"malicious"`
	Reason    string `json:"reason,omitempty"`
	Target    string `json:"target,omitempty"` // the protected name a lookalike imitates
}

// Screener holds the blocklist and brand labels. It is safe for concurrent use.
type Screener struct {
	brands []string

	mu    sync.RWMutex
	block map[string]struct{}
}

// New returns a Screener protecting brands in addition to existing CSE domains.
func New(brands []string) *Screener {
	seen := make(map[string]struct{}, len(brands))
	kept := make([]string, 0, len(brands))
	for _, b := range brands {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" {
			continue
		}
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		kept = append(kept, b)
	}
	return &Screener{brands: kept, block: map[string]struct{}{}}
}

// LoadBlocklist replaces the blocklist with the contents of path: one domain
// per line, blank lines and # comments ignored.
func (s *Screener) LoadBlocklist(path string) error {
	set, err := readListFile(path)
	if err != nil {
		return fmt.Errorf("load blocklist %s: %w", path, err)
	}
	s.mu.Lock()
	s.block = set
	s.mu.Unlock()
	return nil
}

// BlocklistSize returns the number of blocklisted domains.
func (s *Screener) BlocklistSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.block)
}

func readListFile(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[Normalize(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Normalize lowercases d, strips a URL scheme, path and port, and drops a
// trailing dot.
func Normalize(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
		if u, err := url.Parse(d); err == nil {
			d = u.Hostname()
		}
	}
	return strings.TrimSuffix(d, ".")
}

// Check screens domain against the blocklist, the brand labels and the labels
// of existing. A domain equal to one in existing is never a lookalike of it.
func (s *Screener) Check(domain string, existing []string) Verdict {
	d := Normalize(domain)

	if !validHostname(d) {
		return Verdict{Malicious: true, Reason: "invalid domain name"}
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(d)
	if err != nil {
		return Verdict{Malicious: true, Reason: "not a registrable domain"}
	}

	s.mu.RLock()
	_, blocked := s.block[d]
	if !blocked {
		_, blocked = s.block[registrable]
	}
	s.mu.RUnlock()
	if blocked {
		return Verdict{Malicious: true, Reason: "listed on blocklist"}
	}

	label := registrableLabel(registrable)
	if len(label) < MinLabelLen {
		return Verdict{}
	}

	for _, e := range existing {
		e = Normalize(e)
		if e == d {
			continue
		}
		er, err := publicsuffix.EffectiveTLDPlusOne(e)
		if err != nil {
			continue
		}
		if isLookalike(label, registrableLabel(er)) {
			return Verdict{
				Malicious: true,
				Reason:    "possible typosquatting of " + e,
				Target:    e,
			}
		}
	}

	for _, b := range s.brands {
		if isLookalike(label, b) {
			return Verdict{
				Malicious: true,
				Reason:    "possible typosquatting of brand " + b,
				Target:    b,
			}
		}
	}

	return Verdict{}
}

// registrableLabel returns the label left of the public suffix:
// "sbi" for "sbi.co.in".
func registrableLabel(etldPlusOne string) string {
	if i := strings.IndexByte(etldPlusOne, '.'); i >= 0 {
		return etldPlusOne[:i]
	}
	return etldPlusOne
}

func isLookalike(label, target string) bool {
	if label == target || len(target) < MinLabelLen {
		return false
	}
	return editDistance(label, target) == 1
}

// validHostname checks RFC 1123 label syntax.
func validHostname(d string) bool {
	if d == "" || len(d) > 253 || !strings.Contains(d, ".") {
		return false
	}
	for _, label := range strings.Split(d, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}
