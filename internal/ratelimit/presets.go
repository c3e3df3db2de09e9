package ratelimit

import (
	"context"
	"time"
)

// Preset is a named rate-limit policy applied to a class of endpoints.
type Preset struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Fixed policy table for sensitive endpoints.
var (
	PresetLogin    = Preset{Name: "login", Limit: 5, Window: time.Minute}
	PresetRegister = Preset{Name: "register", Limit: 3, Window: time.Hour}
	PresetAPI      = Preset{Name: "api", Limit: 100, Window: time.Minute}
	PresetCheckout = Preset{Name: "checkout", Limit: 10, Window: time.Hour}
)

// Check runs the preset policy against the given subject (buyer id,
// client IP, login name).
func (p Preset) Check(ctx context.Context, l Limiter, subject string) Decision {
	return l.Check(ctx, p.Name+":"+subject, p.Limit, p.Window)
}
