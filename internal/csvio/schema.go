package csvio

// Schema is the table shape recorded at ingestion time.
type Schema struct {
	Columns []string
	Leads   int
}

// InferSchema takes its columns from the header (the first record's key set)
// and counts the records. A file with no data rows is rejected.
func InferSchema(header []string, records []Record) (Schema, error) {
	if len(records) == 0 {
		return Schema{}, &EmptyDatasetError{}
	}
	cols := header
	if len(cols) == 0 {
		cols = records[0].Keys()
	}
	return Schema{
		Columns: append([]string(nil), cols...),
		Leads:   len(records),
	}, nil
}
