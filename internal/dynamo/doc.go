// Package dynamo provides the core simulation primitives for the racer's
// one-dimensional launch dynamics.
//
// The package defines the types shared by every other layer:
//
//   - [State]: the launch state vector with named fields
//   - [Params]: the immutable per-trial sampled parameter set
//   - [System]: the ODE interface (dX/dt = f(X, t))
//   - [Integrator] and [AdaptiveIntegrator]: stepping strategies
//   - [Tank]: the depleting cartridge state for choked-flow thrust
//
// # Thread Safety
//
// States and Params are values and safe to share. Tank is per-trial mutable
// state and must not be shared across trials.
package dynamo
