package handlers

import "github.com/andrescamacho/spacetraders-go/internal/application/registry"

// RegisterAll wires every action handler family into r.
func RegisterAll(r *registry.Registry) {
	RegisterShipHandlers(r)
	RegisterAgentHandlers(r)
	RegisterContractHandlers(r)
	RegisterSystemHandlers(r)
	RegisterViewHandlers(r)
}
