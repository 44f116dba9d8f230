package main

import (
	"synnergy-execcore/core"
	"synnergy-execcore/services/asset"
	"synnergy-execcore/services/governance"
	"synnergy-execcore/services/metadata"
	"synnergy-execcore/services/multisig"
)

// buildRegistry registers every built-in service this binary knows about.
// Names() sorts them lexically, which is also the order hook sweeps and
// commits run in: asset, governance, metadata, multisig. Genesis payloads
// run in the order the genesis file lists them.
func buildRegistry() *core.ServiceRegistry {
	r := core.NewServiceRegistry()
	r.Register("asset", asset.New)
	r.Register("governance", governance.New)
	r.Register("metadata", metadata.New)
	r.Register("multisig", multisig.New)
	return r
}
