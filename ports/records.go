package ports

import (
	"context"

	"synthcap/domain/panel"
)

// RecordSourcePort loads raw performance records for the orchestration
// layer. All I/O happens behind this port, before the panel builder runs;
// the core itself never touches a file or the network.
type RecordSourcePort interface {
	// LoadRecords returns performance records with canonical unit keys,
	// plus the raw names the resolver did not recognize.
	LoadRecords(ctx context.Context) (records []panel.Record, unknownNames []string, err error)
}
