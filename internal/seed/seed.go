// Package seed writes a small set of sample feed exports for local
// development, so a fresh checkout can run the full pipeline without access
// to the real registration reports.
package seed

import (
	"errors"
	"os"
	"path/filepath"
)

var sampleFeeds = map[string]string{
	"registration.csv": `First Name,Last Name,AGA ID,Email,Date of Birth,Registration Type,Status,TransRefNo,Is Primary,Primary Registrant,Tournaments
Pat,Primary,12345,pat@example.com,01/02/1980,Full Week Adult,confirmed,T-1001,yes,,Open
Casey,Primary,12346,,07/15/2012,Youth Weekend,confirmed,T-1001,,Pat Primary,Youth
Jordan,Guest,,jordan@example.com,03/04/1995,Full Week Adult,confirmed,T-1002,yes,,
`,
	"activities.csv": `Registrant ID,First Name,Last Name,AGA ID,Activity Title,Fee,Quantity,TransRefNo
1,Pat,Primary,12345,Banquet Ticket,45,1,T-1001
2,Pat,Primary,12345,Single Room,340,1,T-1001
`,
	"ratings.csv": `AGA ID,First Name,Last Name,Rating,Expiration
12345,Pat,Primary,5.3,12/31/2026
`,
	"charges.csv": `TransRefNo,Category,Amount Due
T-1001,congress,150
T-1001,housing,340
`,
}

// EnsureSampleFeeds populates dataDir with the sample exports. Existing
// files are never overwritten; real exports always win over samples.
func EnsureSampleFeeds(dataDir string) error {
	if dataDir == "" {
		return errors.New("seed data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	for name, content := range sampleFeeds {
		path := filepath.Join(dataDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
