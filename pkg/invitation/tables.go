package invitation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/amirkamran/InvitationModel/pkg/ttable"
)

var tableFiles = [numTables]string{
	"in.trg-src.ttable",
	"in.src-trg.ttable",
	"out.trg-src.ttable",
	"out.src-trg.ttable",
}

// TableFile returns the file name SaveTables uses for slot.
func TableFile(slot int) string { return tableFiles[slot] }

// SaveTables writes the four tables into dir with weights converted to probabilities.
func (tc *TrainingContext) SaveTables(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save tables: %w", err)
	}
	for slot, t := range tc.Tables {
		if t == nil {
			return fmt.Errorf("save tables: %s table not initialized", tableNames[slot])
		}
		path := filepath.Join(dir, tableFiles[slot])
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("save tables: %w", err)
		}
		err = t.Map(tc.Arith.ToProb).Save(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		glog.V(1).Infof("saved %s table (%d pairs) to %s", tableNames[slot], t.Len(), path)
	}
	return nil
}

// LoadTableFile reads the table SaveTables wrote for slot. Weights are probabilities.
func LoadTableFile(dir string, slot int) (*ttable.Table, error) {
	path := filepath.Join(dir, tableFiles[slot])
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ttable.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
