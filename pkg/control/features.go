package control

import (
	"fmt"

	"github.com/docker/docker/pkg/parsers/kernel"
)

// minAcceleratedKernel mirrors pkg/iface/accel.go's gate; duplicated
// here (rather than exported from pkg/iface) because the capability
// report is a property of this kernel, not of any one admitted
// interface.
var minAcceleratedKernel = &kernel.VersionInfo{Kernel: 4, Major: 14, Minor: 0}

// FeatureStatus backs GET /api/features/status: a capability report
// independent of any specific admitted interface.
type FeatureStatus struct {
	AcceleratedTXRing bool   `json:"accelerated_tx_ring"`
	KernelVersion     string `json:"kernel_version"`
	HugePagesPool     bool   `json:"huge_pages_pool"`
	IPv6              bool   `json:"ipv6"`
	BGPFourByteASN    bool   `json:"bgp_four_byte_asn"`
}

// Features reports which optional capabilities this host/engine
// instance can actually provide, so the API layer never has to guess
// from a failed operation after the fact.
func (e *Engine) Features() FeatureStatus {
	v, err := kernel.GetKernelVersion()
	kernelStr := "unknown"
	accelerated := false
	if err == nil {
		kernelStr = fmt.Sprintf("%d.%d.%d", v.Kernel, v.Major, v.Minor)
		accelerated = kernel.CompareKernelVersion(*v, *minAcceleratedKernel) >= 0
	}

	ps := e.PoolStats()

	return FeatureStatus{
		AcceleratedTXRing: accelerated,
		KernelVersion:     kernelStr,
		HugePagesPool:     ps.HugePage,
		IPv6:              true,
		BGPFourByteASN:    true,
	}
}
