package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// Snapshot is the on-disk form of an exported view.
type Snapshot struct {
	RunID      string             `yaml:"run_id"`
	View       string             `yaml:"view"`
	Reason     string             `yaml:"reason"`
	ExportedAt time.Time          `yaml:"exported_at"`
	Network    string             `yaml:"network,omitempty"`
	Exchange   map[string]float64 `yaml:"exchange"`
	Assessment Assessment         `yaml:"assessment"`
}

// DirExporter writes failed working views as YAML snapshots under
// <Dir>/<runID>/<view>-<reason>.yaml.
type DirExporter struct {
	Dir string
	// Breaker, when set, stops calling the filesystem after repeated failures.
	Breaker *derrors.Breaker
}

var _ dichotomy.Exporter = (*DirExporter)(nil)

// exportCooldown outlasts any realistic run, so an open breaker stays open.
const exportCooldown = time.Hour

// NewDirExporter returns an exporter guarded by a circuit breaker that opens
// after maxFailures consecutive write errors.
func NewDirExporter(dir string, maxFailures int) *DirExporter {
	return &DirExporter{
		Dir:     dir,
		Breaker: derrors.NewBreaker("scenario-export", maxFailures, exportCooldown),
	}
}

// Export implements dichotomy.Exporter.
func (x *DirExporter) Export(ctx context.Context, sc dichotomy.Scenario, runID string, reason dichotomy.Reason) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	network, ok := sc.(*Network)
	if !ok {
		return fmt.Errorf("export: unsupported scenario type %T", sc)
	}
	exchange := network.Exchange()
	snap := Snapshot{
		RunID:      runID,
		View:       network.CurrentView(),
		Reason:     reason.String(),
		ExportedAt: time.Now().UTC(),
		Network:    network.model.Name,
		Exchange:   exchange,
		Assessment: network.model.assess(exchange),
	}
	path := x.Path(runID, snap.View, reason)
	if x.Breaker == nil {
		return write(path, snap)
	}
	return x.Breaker.Do(func() error { return write(path, snap) })
}

// Path returns where the snapshot of view for runID and reason is written.
func (x *DirExporter) Path(runID, view string, reason dichotomy.Reason) string {
	name := fmt.Sprintf("%s-%s.yaml", view, strings.ToLower(reason.String()))
	return filepath.Join(x.Dir, runID, name)
}

func write(path string, snap Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return derrors.Wrap(derrors.ErrCodeExportFailed, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return derrors.Wrap(derrors.ErrCodeExportFailed, err)
	}
	return nil
}
