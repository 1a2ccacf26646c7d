package api

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/banshee-data/railwear/internal/profile"
)

// generateRequest is a parsed /api/rails query.
type generateRequest struct {
	Params  profile.Params
	Seed    uint64
	HasSeed bool
}

func invalid(name, raw string, err error) error {
	return fmt.Errorf("%w: %s=%q: %v", profile.ErrInvalidParameter, name, raw, err)
}

// parseGenerateRequest reads length, amplitude, frequency and seed from q.
// Missing values take their defaults; range checks are left to
// profile.Params.Validate.
func parseGenerateRequest(q url.Values) (generateRequest, error) {
	req := generateRequest{Params: profile.DefaultParams()}

	if v := strings.TrimSpace(q.Get("length")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, invalid("length", v, err)
		}
		req.Params.Length = n
	}
	if v := strings.TrimSpace(q.Get("amplitude")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, invalid("amplitude", v, err)
		}
		req.Params.Amplitude = f
	}
	if v := strings.TrimSpace(q.Get("frequency")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, invalid("frequency", v, err)
		}
		req.Params.Frequency = f
	}
	if v := strings.TrimSpace(q.Get("seed")); v != "" {
		s, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, invalid("seed", v, err)
		}
		req.Seed = s
		req.HasSeed = true
	}
	return req, nil
}

// parseRail reads the rail query parameter, defaulting to rail 1.
func parseRail(q url.Values) (int, error) {
	v := strings.TrimSpace(q.Get("rail"))
	if v == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || (n != 1 && n != 2) {
		return 0, fmt.Errorf("%w: rail must be 1 or 2, got %q", profile.ErrInvalidParameter, v)
	}
	return n, nil
}

// parseScore reads the score query parameter for /api/assess.
func parseScore(q url.Values) (float64, error) {
	v := strings.TrimSpace(q.Get("score"))
	if v == "" {
		return 0, fmt.Errorf("%w: score is required", profile.ErrInvalidParameter)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, invalid("score", v, err)
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("%w: score is NaN", profile.ErrInvalidParameter)
	}
	return f, nil
}

// parseLimit reads a non-negative limit; zero means the store's default.
func parseLimit(q url.Values) (int, error) {
	v := strings.TrimSpace(q.Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer, got %q", profile.ErrInvalidParameter, v)
	}
	return n, nil
}
