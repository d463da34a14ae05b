package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	treeboard "github.com/ideamans/go-treeboard"
)

// NewRESTServer serves the dashboard REST API from backend so the
// httpapi client can be exercised end to end.
func NewRESTServer(backend treeboard.Backend) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/display/table", func(w http.ResponseWriter, r *http.Request) {
		snap, err := backend.FetchTable(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"rows":             valueMaps(snap.Rows),
				"columns":          snap.Columns,
				"processingTimeMs": snap.ProcessingTimeMs,
			},
		})
	})

	mux.HandleFunc("GET /api/tree/current", func(w http.ResponseWriter, r *http.Request) {
		mode, err := backend.FetchStructure(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"treeType": mode})
	})

	mux.HandleFunc("GET /api/data/search", func(w http.ResponseWriter, r *http.Request) {
		res, err := backend.Search(r.Context(), r.URL.Query().Get("query"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		results := valueMaps(res.Rows)
		results = append(results, map[string]interface{}{"isMetadata": true, "searchMethod": res.SearchMethod})
		writeJSON(w, map[string]interface{}{
			"success":          true,
			"results":          results,
			"searchMethod":     res.SearchMethod,
			"processingTimeMs": res.ProcessingTimeMs,
		})
	})

	sortHandler := func(alg treeboard.Algorithm) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			dir, err := treeboard.ParseDirection(q.Get("direction"))
			if err != nil {
				writeFailure(w, err)
				return
			}
			res, err := backend.Sort(r.Context(), alg, q.Get("property"), dir)
			if err != nil {
				writeFailure(w, err)
				return
			}
			writeJSON(w, map[string]interface{}{
				"success":          true,
				"data":             valueMaps(res.Rows),
				"processingTimeMs": res.ProcessingTimeMs,
			})
		}
	}
	mux.HandleFunc("GET /api/mergeSort/sortByProperty", sortHandler(treeboard.AlgorithmMergeSort))
	mux.HandleFunc("GET /api/sorting/sort-by-property", sortHandler(treeboard.AlgorithmHeapSort))
	mux.HandleFunc("GET /api/data/sort", sortHandler(treeboard.AlgorithmBuiltinSort))

	mux.HandleFunc("POST /api/tree/convert", func(w http.ResponseWriter, r *http.Request) {
		msg, err := backend.Convert(r.Context(), treeboard.StructureMode(r.URL.Query().Get("targetTree")))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{"success": true, "message": msg})
	})

	mux.HandleFunc("POST /api/data/import-csv", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Please upload a CSV file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		msg, err := backend.Import(r.Context(), header.Filename, file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]interface{}{"success": true, "message": msg})
	})

	mux.HandleFunc("POST /api/data/add", func(w http.ResponseWriter, r *http.Request) {
		values := map[string]interface{}{}
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := backend.AddRow(r.Context(), treeboard.NewRow(values, treeboard.DefaultKeyField)); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{"success": true})
	})

	mux.HandleFunc("DELETE /api/data/delete/{key}", func(w http.ResponseWriter, r *http.Request) {
		if err := backend.DeleteRow(r.Context(), r.PathValue("key")); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{"success": true})
	})

	return httptest.NewServer(mux)
}

func valueMaps(rows []treeboard.Row) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Values)
	}
	return out
}

// writeFailure reports application errors in-band and everything else
// as a server error.
func writeFailure(w http.ResponseWriter, err error) {
	var aerr *treeboard.ApplicationError
	if errors.As(err, &aerr) {
		writeJSON(w, map[string]interface{}{"success": false, "error": aerr.Message})
		return
	}
	if errors.Is(err, treeboard.ErrInvalidDirection) {
		writeJSON(w, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
