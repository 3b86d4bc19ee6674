package estimation

import (
	cerrors "github.com/santoshpalla27/cloud-economics/pkg/errors"
	"github.com/santoshpalla27/cloud-economics/pkg/units"
)

// Supplementary monthly costs and the hourly instance rate of the simple model.
const (
	DefaultRDSCost      = 200.0
	DefaultNATCost      = 50.0
	DefaultLBCost       = 25.0
	DefaultShieldCost   = 10.0
	DefaultInstanceRate = 0.10
)

// SimpleInput is the input of the closed-form estimate.
type SimpleInput struct {
	Users      int
	Capacity   int
	RDSCost    float64
	NATCost    float64
	LBCost     float64
	ShieldCost float64
}

// NewSimpleInput returns an input carrying the default supplementary costs.
func NewSimpleInput(users, capacity int) SimpleInput {
	return SimpleInput{
		Users:      users,
		Capacity:   capacity,
		RDSCost:    DefaultRDSCost,
		NATCost:    DefaultNATCost,
		LBCost:     DefaultLBCost,
		ShieldCost: DefaultShieldCost,
	}
}

// SimpleEstimate is the closed-form result.
type SimpleEstimate struct {
	Users           int
	Capacity        int
	InstancesNeeded int
	InstanceCost    float64
	RDSCost         float64
	NATCost         float64
	LBCost          float64
	ShieldCost      float64
	TotalCost       float64
}

// SimpleEstimator prices a deployment without consulting the catalog.
type SimpleEstimator struct {
	// HourlyRate is the per-instance hourly price.
	HourlyRate float64
}

// NewSimpleEstimator returns an estimator using DefaultInstanceRate.
func NewSimpleEstimator() *SimpleEstimator {
	return &SimpleEstimator{HourlyRate: DefaultInstanceRate}
}

// Estimate computes instances = ceil(users/capacity) and a monthly total
// rounded to cents.
func (e *SimpleEstimator) Estimate(in SimpleInput) (*SimpleEstimate, error) {
	if in.Users <= 0 || in.Capacity <= 0 {
		return nil, cerrors.Validation("Users and instance capacity must be positive integers.")
	}

	instances := units.InstancesNeeded(in.Users, in.Capacity)
	instanceCost := float64(instances) * units.HourlyToMonthly(e.HourlyRate)
	total := instanceCost + in.RDSCost + in.NATCost + in.LBCost + in.ShieldCost

	return &SimpleEstimate{
		Users:           in.Users,
		Capacity:        in.Capacity,
		InstancesNeeded: instances,
		InstanceCost:    instanceCost,
		RDSCost:         in.RDSCost,
		NATCost:         in.NATCost,
		LBCost:          in.LBCost,
		ShieldCost:      in.ShieldCost,
		TotalCost:       units.Round(total, 2),
	}, nil
}
