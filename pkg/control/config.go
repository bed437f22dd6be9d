package control

import (
	"encoding/json"
	"fmt"

	"github.com/netgenlab/trafficgen/pkg/iface"
	"github.com/netgenlab/trafficgen/pkg/scheduler"
)

// snapshotDoc is the JSON shape POST /api/config returns and POST
// /api/config/load accepts.
type snapshotDoc struct {
	Interfaces []iface.Config      `json:"interfaces"`
	Profiles   []scheduler.Profile `json:"profiles"`
	Enabled    map[string]bool     `json:"enabled"`
}

// Snapshot serializes the admitted-interface and profile registries to
// a JSON blob; running workers are not part of the snapshot, only the
// enabled flag that StartTraffic consults.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.Lock()
	doc := snapshotDoc{
		Enabled: make(map[string]bool, len(e.enabled)),
	}
	for _, cfg := range e.ifaceCfg {
		doc.Interfaces = append(doc.Interfaces, cfg)
	}
	for _, p := range e.profiles {
		doc.Profiles = append(doc.Profiles, p)
	}
	for name, on := range e.enabled {
		doc.Enabled[name] = on
	}
	e.mu.Unlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("control: marshal snapshot: %w", err)
	}
	return data, nil
}

// Restore admits every interface and puts every profile from a JSON
// blob produced by Snapshot, overwriting registry entries of the same
// name; entries absent from the blob are kept. Traffic is stopped first
// since a restored profile set may reference interfaces under different
// names.
func (e *Engine) Restore(data []byte) error {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("control: unmarshal snapshot: %w", err)
	}

	e.StopTraffic()

	for _, cfg := range doc.Interfaces {
		if err := e.AdmitInterface(cfg); err != nil {
			return err
		}
	}
	for _, p := range doc.Profiles {
		if err := e.PutProfile(p); err != nil {
			return err
		}
	}
	e.mu.Lock()
	for name, on := range doc.Enabled {
		e.enabled[name] = on
	}
	e.mu.Unlock()
	return nil
}
