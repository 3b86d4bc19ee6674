package api

import (
	"net/url"
	"strconv"
	"strings"

	contracts "github.com/santoshpalla27/cloud-economics/pkg/api"
	cerrors "github.com/santoshpalla27/cloud-economics/pkg/errors"
)

func requiredInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, cerrors.Parameter(name, "field required")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, cerrors.Parameter(name, "value is not a valid integer")
	}
	return v, nil
}

func optionalFloat(q url.Values, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, cerrors.Parameter(name, "value is not a valid number")
	}
	return v, nil
}

func requiredString(q url.Values, name string) (string, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return "", cerrors.Parameter(name, "field required")
	}
	return v, nil
}

func parseSimpleCostRequest(q url.Values) (contracts.SimpleCostRequest, error) {
	var req contracts.SimpleCostRequest
	var err error

	if req.Users, err = requiredInt(q, "users"); err != nil {
		return req, err
	}
	if req.InstanceCapacity, err = requiredInt(q, "instance_capacity"); err != nil {
		return req, err
	}

	overrides := []struct {
		name string
		dst  **float64
	}{
		{"rds_cost", &req.RDSCost},
		{"nat_cost", &req.NATCost},
		{"lb_cost", &req.LBCost},
		{"shield_cost", &req.ShieldCost},
	}
	for _, o := range overrides {
		if !q.Has(o.name) {
			continue
		}
		v, err := optionalFloat(q, o.name, 0)
		if err != nil {
			return req, err
		}
		*o.dst = &v
	}
	return req, nil
}

func parseCompiledCostRequest(q url.Values) (contracts.CompiledCostRequest, error) {
	var req contracts.CompiledCostRequest
	var err error

	if req.Users, err = requiredInt(q, "users"); err != nil {
		return req, err
	}
	if req.InstanceCapacity, err = requiredInt(q, "instance_capacity"); err != nil {
		return req, err
	}
	req.Region = strings.TrimSpace(q.Get("region"))
	if req.Region == "" {
		req.Region = contracts.DefaultRegion
	}
	return req, nil
}
