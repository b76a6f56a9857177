package cmd

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/scorio/scorio/constants"
	"github.com/scorio/scorio/model"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the conversion endpoint",
	Long:  `Serves the conversion endpoint`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}

func HandleConvert(w http.ResponseWriter, r *http.Request) {
	reqBody, err := io.ReadAll(io.LimitReader(r.Body, constants.MaxSourceBytes))
	if err != nil {
		writeError(w, 400, "could not read request body")
		return
	}

	var input model.ConvertRequestBody
	if err := json.Unmarshal(reqBody, &input); err != nil {
		writeError(w, 400, "could not unmarshal request body: "+err.Error())
		return
	}

	indent := input.Indent
	if indent == "" {
		indent = constants.DefaultIndent
	}
	out, err := Convert(input.Source, input.Beam, input.Format, indent)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}

	if input.Format == "midi" {
		w.Header().Set("Content-Type", "audio/midi")
	} else {
		w.Header().Set("Content-Type", "application/xml")
	}
	w.Write(out)
}

func serve() {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/convert", HandleConvert).Methods("POST")
	handler := cors.Default().Handler(router)
	log.Fatal(http.ListenAndServe(":"+constants.GetPort(), handler))
}
