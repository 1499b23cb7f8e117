package collection

import (
	"bytes"
	"fmt"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"hexapink-api/internal/logs"
	"hexapink-api/internal/storage"
	"hexapink-api/internal/table"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq uint64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	id := atomic.AddUint64(&testDBSeq, 1)
	dsn := fmt.Sprintf("file:collection_test_%d?mode=memory&cache=shared", id)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&Collection{}, &table.Table{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*CollectionService, *gorm.DB, *storage.LocalStore) {
	t.Helper()
	db := newTestDB(t)
	store := storage.NewLocalStore(t.TempDir())
	var tick int64
	clock := func() time.Time {
		tick++
		return time.UnixMilli(tick)
	}
	return &CollectionService{DB: db, Store: store, Now: clock}, db, store
}

func seedTable(t *testing.T, db *gorm.DB, name string, columns ...string) table.Table {
	t.Helper()
	tbl := table.Table{UserID: 1, Name: name, Columns: columns, ColumnCount: len(columns), File: "uploads/tables/x.csv", Delimiter: "comma", Encoding: "utf-8"}
	if err := db.Create(&tbl).Error; err != nil {
		t.Fatalf("seed table: %v", err)
	}
	return tbl
}

func storedImages(t *testing.T, store *storage.LocalStore) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(store.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(store.Root, p)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return out
}

func fileHeaderFromBytes(t *testing.T, formField, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(formField, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(content)
	_ = w.Close()

	r := multipart.NewReader(bytes.NewReader(buf.Bytes()), w.Boundary())
	form, err := r.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	return form.File[formField][0]
}

func newMultipartReq(method, url string, fields map[string]string, fileField, fileName string, fileBytes []byte) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if fileField != "" {
		fw, _ := w.CreateFormFile(fileField, fileName)
		_, _ = fw.Write(fileBytes)
	}
	_ = w.Close()

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type fakeLogService struct {
	Calls []logs.SystemLog
	Err   error
}

func (f *fakeLogService) Log(l logs.SystemLog, _ interface{}) error {
	f.Calls = append(f.Calls, l)
	return f.Err
}
