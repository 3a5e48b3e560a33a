package output

import (
	"encoding/json"
)

// JSONFormatter renders the dataset's raw payload as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format renders ds.Raw, or the rows keyed by column when Raw is nil.
func (f *JSONFormatter) Format(ds *Dataset) (string, error) {
	if ds == nil {
		return "", nil
	}

	payload := ds.Raw
	if payload == nil {
		payload = rowsAsObjects(ds)
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func rowsAsObjects(ds *Dataset) []map[string]string {
	objects := make([]map[string]string, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		object := make(map[string]string, len(row))
		for i, cell := range row {
			key := ""
			if i < len(ds.Columns) {
				key = ds.Columns[i]
			}
			if key == "" {
				continue
			}
			object[key] = cell
		}
		objects = append(objects, object)
	}
	return objects
}
