package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/colonyops/scribe/internal/data/db"
)

// StorageCheck verifies the data directory is writable and the history
// database answers with an up to date schema.
type StorageCheck struct {
	dataDir  string
	database *db.DB
}

// NewStorageCheck creates a storage check. database may be nil.
func NewStorageCheck(dataDir string, database *db.DB) *StorageCheck {
	return &StorageCheck{dataDir: dataDir, database: database}
}

func (c *StorageCheck) Name() string {
	return "Storage"
}

func (c *StorageCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}
	result.Items = append(result.Items, c.checkDataDir())

	if c.database == nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "database",
			Status: StatusWarn,
			Detail: "not open, history is not saved",
		})
		return result
	}

	result.Items = append(result.Items, c.checkSchema(ctx))

	var n int
	if err := c.database.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM scripts").Scan(&n); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "database",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "database",
		Status: StatusPass,
		Detail: fmt.Sprintf("%d script(s)", n),
	})
	return result
}

func (c *StorageCheck) checkSchema(ctx context.Context) CheckItem {
	status, err := c.database.Status(ctx)
	if err != nil {
		return CheckItem{Label: "schema", Status: StatusFail, Detail: err.Error()}
	}
	if !status.UpToDate() {
		return CheckItem{
			Label:  "schema",
			Status: StatusWarn,
			Detail: fmt.Sprintf("v%d, %d migration(s) pending", status.Current, len(status.Pending)),
		}
	}
	return CheckItem{Label: "schema", Status: StatusPass, Detail: fmt.Sprintf("v%d", status.Current)}
}

func (c *StorageCheck) checkDataDir() CheckItem {
	info, err := os.Stat(c.dataDir)
	switch {
	case os.IsNotExist(err):
		return CheckItem{Label: "data dir", Status: StatusWarn, Detail: c.dataDir + " does not exist"}
	case err != nil:
		return CheckItem{Label: "data dir", Status: StatusFail, Detail: fmt.Sprintf("inaccessible: %v", err)}
	case !info.IsDir():
		return CheckItem{Label: "data dir", Status: StatusFail, Detail: c.dataDir + " is not a directory"}
	}

	f, err := os.CreateTemp(c.dataDir, ".doctor-*")
	if err != nil {
		return CheckItem{Label: "data dir", Status: StatusFail, Detail: fmt.Sprintf("not writable: %v", err)}
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	return CheckItem{Label: "data dir", Status: StatusPass, Detail: c.dataDir}
}
