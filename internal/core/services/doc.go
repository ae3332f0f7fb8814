// Package services contains the core business logic, orchestrating the
// driven ports without knowing about adapters.
package services
