package main

import (
	"github.com/spf13/cobra"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

func printReport(cmd *cobra.Command, report domain.RunReport) {
	cmd.Printf("Файлов найдено:     %d\n", report.FilesFound)
	cmd.Printf("Обработано:         %d\n", report.FilesProcessed)
	cmd.Printf("Пропущено (дубли):  %d\n", report.FilesSkipped)
	cmd.Printf("Ошибок:             %d\n", report.FilesFailed)
	cmd.Printf("Чанков записано:    %d\n", report.ChunksTotal)
	cmd.Printf("Ссылок на НТД:      %d\n", report.ReferenceTotal)
	cmd.Printf("Доля успешных:      %.1f%%\n", report.SuccessRate*100)
	if len(report.QualityIssues) > 0 {
		cmd.Println("Замечания:")
		shown := len(report.QualityIssues)
		if shown > 20 {
			shown = 20
		}
		for _, issue := range report.QualityIssues[:shown] {
			cmd.Println("  -", issue)
		}
		if rest := len(report.QualityIssues) - shown; rest > 0 {
			cmd.Printf("  ... и ещё %d\n", rest)
		}
	}
}
