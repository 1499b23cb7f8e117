package collection

import (
	"context"
	"strings"
	"testing"

	"hexapink-api/internal/apperr"
)

func emailColumn(tableID uint, column string) []Column {
	return []Column{{
		ID:           1,
		Name:         " Email ",
		Type:         "text",
		ShowToClient: true,
		TableColumns: []TableColumn{{TableID: tableID, TableColumn: column}},
	}}
}

func TestCreateCollection_MapsTableColumns(t *testing.T) {
	svc, db, store := newTestService(t)
	tbl := seedTable(t, db, "France B2B", "email", "phone")

	col, err := svc.CreateCollection(context.Background(), CollectionInput{
		Title:     "  B2B France ",
		Type:      "Business",
		Countries: []string{"FR", " ", "BE"},
		Fee:       2.5,
		Columns:   emailColumn(tbl.ID, "email"),
	}, fileHeaderFromBytes(t, "file", "Cover.PNG", []byte("png")))
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	if col.Title != "B2B France" || col.Status != StatusActive || strings.Join(col.Countries, ",") != "FR,BE" {
		t.Fatalf("unexpected collection: %+v", col)
	}
	if !strings.HasPrefix(col.Image, ImagesDir+"/") || !strings.HasSuffix(col.Image, "_Cover.png") {
		t.Fatalf("image=%s", col.Image)
	}
	if imgs := storedImages(t, store); len(imgs) != 1 || imgs[0] != col.Image {
		t.Fatalf("stored images=%v", imgs)
	}

	var stored Collection
	if err := db.First(&stored, col.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	cols, err := stored.ColumnList()
	if err != nil {
		t.Fatalf("ColumnList: %v", err)
	}
	if len(cols) != 1 || cols[0].Name != "Email" || cols[0].TableColumns[0].TableName != "France B2B" {
		t.Fatalf("columns=%+v", cols)
	}
}

func TestCreateCollection_RejectsBadMappings(t *testing.T) {
	svc, db, store := newTestService(t)
	tbl := seedTable(t, db, "t", "email")
	image := fileHeaderFromBytes(t, "file", "c.png", []byte("png"))

	_, err := svc.CreateCollection(context.Background(), CollectionInput{Title: "x", Columns: emailColumn(999, "email")}, image)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("unknown table: expected not_found, got %v", err)
	}
	_, err = svc.CreateCollection(context.Background(), CollectionInput{Title: "x", Columns: emailColumn(tbl.ID, "fax")}, image)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("unknown column: expected validation, got %v", err)
	}

	if imgs := storedImages(t, store); len(imgs) != 0 {
		t.Fatalf("image stored for rejected collection: %v", imgs)
	}
	var n int64
	db.Model(&Collection{}).Count(&n)
	if n != 0 {
		t.Fatalf("collections created: %d", n)
	}
}

func TestCreateCollection_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)

	cases := map[string]CollectionInput{
		"blank title":  {Title: "  "},
		"long title":   {Title: strings.Repeat("t", MaxTitleLength+1)},
		"negative fee": {Title: "x", Fee: -1},
		"column name":  {Title: "x", Columns: []Column{{Type: "text"}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.CreateCollection(context.Background(), in, nil); apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("expected validation, got %v", err)
			}
		})
	}
}

func TestUpdateCollection_ReplacesImage(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, CollectionInput{Title: "old", Type: "Business"}, fileHeaderFromBytes(t, "file", "a.png", []byte("a")))
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if _, err := svc.UpdateFields(col.ID, FieldsInput{Status: strPtr(StatusInactive)}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	updated, err := svc.UpdateCollection(ctx, col.ID, CollectionInput{Title: "new", Type: "Consumer"}, fileHeaderFromBytes(t, "file", "b.png", []byte("b")))
	if err != nil {
		t.Fatalf("UpdateCollection: %v", err)
	}
	if updated.Title != "new" || updated.Type != "Consumer" || updated.Status != StatusInactive {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if imgs := storedImages(t, store); len(imgs) != 1 || imgs[0] != updated.Image || updated.Image == col.Image {
		t.Fatalf("images=%v image=%s", imgs, updated.Image)
	}

	kept, err := svc.UpdateCollection(ctx, col.ID, CollectionInput{Title: "newer"}, nil)
	if err != nil {
		t.Fatalf("UpdateCollection: %v", err)
	}
	if kept.Image != updated.Image {
		t.Fatalf("image dropped without a new upload: %s", kept.Image)
	}

	if _, err := svc.UpdateCollection(ctx, 999, CollectionInput{Title: "x"}, nil); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestUpdateFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	col, err := svc.CreateCollection(context.Background(), CollectionInput{Title: "c", Fee: 3}, nil)
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	featured := true
	zero := 0.0
	got, err := svc.UpdateFields(col.ID, FieldsInput{Featured: &featured, Fee: &zero})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if !got.Featured || got.Fee != 0 || got.Title != "c" {
		t.Fatalf("unexpected: %+v", got)
	}

	if _, err := svc.UpdateFields(col.ID, FieldsInput{Status: strPtr("Archived")}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("bad status: expected validation, got %v", err)
	}
	if _, err := svc.UpdateFields(col.ID, FieldsInput{}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("no fields: expected validation, got %v", err)
	}
	if _, err := svc.UpdateFields(404, FieldsInput{Featured: &featured}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestMatchingCollections(t *testing.T) {
	svc, db, _ := newTestService(t)
	seed := []Collection{
		{Title: "fr", Type: "Business", Countries: []string{"FR"}, Status: StatusActive},
		{Title: "es-be", Type: "Business", Countries: []string{"ES", "BE"}, Status: StatusActive},
		{Title: "fr-off", Type: "Business", Countries: []string{"FR"}, Status: StatusInactive},
		{Title: "fr-consumer", Type: "Consumer", Countries: []string{"FR"}, Status: StatusActive},
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.MatchingCollections("Business", []string{"FR", "BE"})
	if err != nil {
		t.Fatalf("MatchingCollections: %v", err)
	}
	var titles []string
	for _, c := range got {
		titles = append(titles, c.Title)
	}
	if strings.Join(titles, ",") != "fr,es-be" {
		t.Fatalf("titles=%v", titles)
	}
}

func TestListFeaturedAndDelete(t *testing.T) {
	svc, db, store := newTestService(t)
	ctx := context.Background()

	for i, title := range []string{"a", "b", "c"} {
		in := CollectionInput{Title: title, Featured: i == 1}
		if _, err := svc.CreateCollection(ctx, in, fileHeaderFromBytes(t, "file", title+".png", []byte(title))); err != nil {
			t.Fatalf("CreateCollection: %v", err)
		}
	}

	page, err := svc.ListCollections(2, 2)
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || len(page.Collections) != 1 || page.Collections[0].Title != "c" {
		t.Fatalf("page=%+v", page)
	}

	featured, err := svc.FeaturedCollections()
	if err != nil || len(featured) != 1 || featured[0].Title != "b" {
		t.Fatalf("featured=%v err=%v", featured, err)
	}

	if err := svc.DeleteCollection(ctx, featured[0].ID); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	if imgs := storedImages(t, store); len(imgs) != 2 {
		t.Fatalf("image not removed: %v", imgs)
	}
	var n int64
	db.Model(&Collection{}).Count(&n)
	if n != 2 {
		t.Fatalf("collections=%d", n)
	}
	if err := svc.DeleteCollection(ctx, featured[0].ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestExists(t *testing.T) {
	_, db, _ := newTestService(t)
	c := Collection{Title: "c", Status: StatusActive}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := Exists(db, nil); err != nil {
		t.Fatalf("empty ids: %v", err)
	}
	if err := Exists(db, []uint{c.ID, c.ID}); err != nil {
		t.Fatalf("repeated id: %v", err)
	}
	if err := Exists(db, []uint{c.ID, 77}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}
