package main

// Command line access to the document pipeline:
//   go run ./cmd/docprep analyze report.docx -o yaml

import "docprep-backend/internal/cli"

func main() {
	cli.Execute()
}
