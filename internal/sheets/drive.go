package sheets

import (
	"context"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/kitapunya/expense-backend/internal/metrics"
)

const OpMasterFile = "master_file"

// MasterFile is the Drive metadata of the master spreadsheet.
type MasterFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ModifiedTime string `json:"modifiedTime"`
}

// DriveStat checks that the master spreadsheet is reachable with the
// service account's credentials.
type DriveStat struct {
	svc    *drive.Service
	fileID string
}

func NewDriveStat(svc *drive.Service, fileID string) *DriveStat {
	return &DriveStat{svc: svc, fileID: fileID}
}

func (p *DriveStat) Stat(ctx context.Context) (*MasterFile, error) {
	started := time.Now()
	f, err := p.svc.Files.Get(p.fileID).
		Fields(googleapi.Field("id,name,modifiedTime")).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	err = wrapRemote(OpMasterFile, err)
	metrics.ObserveSheetsCall(OpMasterFile, started, err)
	if err != nil {
		return nil, err
	}
	return &MasterFile{ID: f.Id, Name: f.Name, ModifiedTime: f.ModifiedTime}, nil
}
