// Package ratelimit provides per-client, per-operation token-bucket admission
// control. Buckets are created lazily and synchronized independently, so
// checks for distinct clients never contend on a shared lock.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cyphergate/cyphergate/pkg/models"
)

// GlobalRule is the reserved rule name for the cross-operation bucket.
const GlobalRule = "global"

// Rule is one bucket configuration: Requests per Window with Burst capacity.
type Rule struct {
	Name     string        `yaml:"name" json:"name"`
	Requests int           `yaml:"requests" json:"requests"`
	Window   time.Duration `yaml:"window" json:"window"`
	Burst    int           `yaml:"burst" json:"burst"`
}

func (r Rule) limit() rate.Limit {
	if r.Window <= 0 || r.Requests <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(r.Requests) / r.Window.Seconds())
}

func (r Rule) burst() int {
	if r.Burst > 0 {
		return r.Burst
	}
	return r.Requests
}

// Registry owns every bucket. It is an explicit object handed to the
// pipeline's composition point, not a process-wide singleton, so independent
// pipelines can carry independent limits.
type Registry struct {
	rules  map[string]Rule
	global *Rule
	// buckets maps rule name + client to its limiter. sync.Map keeps checks
	// on distinct keys contention-free; each limiter synchronizes itself.
	buckets sync.Map
	now     func() time.Time
}

// NewRegistry builds a registry from named per-operation rules and an
// optional global rule applied to every operation.
func NewRegistry(rules []Rule, global *Rule) *Registry {
	byName := make(map[string]Rule, len(rules))
	for _, r := range rules {
		byName[r.Name] = r
	}
	return &Registry{
		rules:  byName,
		global: global,
		now:    time.Now,
	}
}

// Check admits or denies one request for (client, operation). The request
// must pass every applicable bucket: the operation's own rule and the global
// rule when configured. On denial no tokens are consumed from any bucket.
func (reg *Registry) Check(clientID, operation string) models.RateDecision {
	type claim struct {
		res *rate.Reservation
		lim *rate.Limiter
	}

	now := reg.now()
	var claims []claim

	release := func() {
		for _, c := range claims {
			c.res.CancelAt(now)
		}
	}

	for _, applicable := range reg.applicableRules(operation) {
		lim := reg.bucket(applicable.Name+"\x00"+clientID, applicable)
		res := lim.ReserveN(now, 1)
		if !res.OK() {
			release()
			return models.RateDecision{Allowed: false, Rule: applicable.Name}
		}
		if delay := res.DelayFrom(now); delay > 0 {
			res.CancelAt(now)
			release()
			return models.RateDecision{
				Allowed:    false,
				RetryAfter: delay.Seconds(),
				Remaining:  lim.TokensAt(now),
				Rule:       applicable.Name,
			}
		}
		claims = append(claims, claim{res: res, lim: lim})
	}

	if len(claims) == 0 {
		// No rule applies: admission is unconditional.
		return models.RateDecision{Allowed: true, Remaining: -1}
	}

	remaining := claims[0].lim.TokensAt(now)
	for _, c := range claims[1:] {
		if t := c.lim.TokensAt(now); t < remaining {
			remaining = t
		}
	}
	if remaining < 0 {
		remaining = 0
	}
	return models.RateDecision{Allowed: true, Remaining: remaining}
}

func (reg *Registry) applicableRules(operation string) []Rule {
	var out []Rule
	if r, ok := reg.rules[operation]; ok {
		out = append(out, r)
	}
	if reg.global != nil {
		g := *reg.global
		g.Name = GlobalRule
		out = append(out, g)
	}
	return out
}

func (reg *Registry) bucket(key string, r Rule) *rate.Limiter {
	if v, ok := reg.buckets.Load(key); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(r.limit(), r.burst())
	actual, _ := reg.buckets.LoadOrStore(key, lim)
	return actual.(*rate.Limiter)
}
