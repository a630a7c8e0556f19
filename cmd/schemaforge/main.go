package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/schemaforge/schemaforge"
	"github.com/schemaforge/schemaforge/internal/config"
	"github.com/schemaforge/schemaforge/internal/erd"
	"github.com/schemaforge/schemaforge/internal/logging"
	"github.com/schemaforge/schemaforge/internal/schema"
)

var (
	fileID       string
	metadataPath string
	dbURL        string
	mysqlURL     string
	sqlitePath   string
	outputDir    string
	tables       string
	schemaName   string
	formats      string
	noSQL        bool
	noERD        bool
	noRender     bool
)

var rootCmd = &cobra.Command{
	Use:   "schemaforge",
	Short: "Generate MySQL DDL and ER diagrams from schema metadata",
	Long: `SchemaForge turns schema metadata into a MySQL DDL script and a Mermaid ER
diagram. The metadata comes from a metadata.json document produced by an
upstream analysis run, or straight from a live PostgreSQL, MySQL, or SQLite
database. The diagram source is then rendered to PNG, SVG, and PDF with a
headless browser unless --no-render is given.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&fileID, "file-id", "", "Metadata document ID under the artifacts directory")
	rootCmd.Flags().StringVar(&metadataPath, "metadata", "", "Path to a metadata JSON document")
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "Database connection URL (postgres://, mysql://, or sqlite://)")
	rootCmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory (default: <artifacts dir>/<file ID>)")
	rootCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	rootCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	rootCmd.Flags().StringVarP(&formats, "formats", "f", "", "Render formats: png, svg, pdf (comma-separated, default from config)")
	rootCmd.Flags().BoolVar(&noSQL, "no-sql", false, "Skip the MySQL DDL script")
	rootCmd.Flags().BoolVar(&noERD, "no-erd", false, "Skip the Mermaid ERD source")
	rootCmd.Flags().BoolVar(&noRender, "no-render", false, "Skip rendering the ERD to images")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, flush, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer flush()

	// Validate source flags
	sourceCount := 0
	for _, v := range []string{fileID, metadataPath, dbURL, mysqlURL, sqlitePath} {
		if v != "" {
			sourceCount++
		}
	}
	if sourceCount == 0 {
		return fmt.Errorf("one of --file-id, --metadata, --db-url, --mysql-url, or --sqlite must be specified")
	}
	if sourceCount > 1 {
		return fmt.Errorf("only one of --file-id, --metadata, --db-url, --mysql-url, or --sqlite can be specified")
	}

	md, err := loadModel(ctx, cfg)
	if err != nil {
		return err
	}

	logger.Info("schema model ready",
		zap.String("file_id", md.FileID),
		zap.Int("tables", len(md.Tables)),
		zap.Int("columns", md.TotalColumns()))

	outDir := outputDir
	if outDir == "" {
		outDir = filepath.Join(cfg.ArtifactsDir, md.FileID)
	}

	arts, err := schemaforge.Generate(md, &schemaforge.Options{
		OutputDir: outDir,
		SQL:       cfg.GenerateSQL && !noSQL,
		ERD:       cfg.GenerateERD && !noERD,
	})
	if err != nil {
		return err
	}

	if arts.DDLPath != "" {
		logger.Info("wrote DDL script", zap.String("path", arts.DDLPath))
	}
	if arts.ERDPath != "" {
		logger.Info("wrote ERD source", zap.String("path", arts.ERDPath))
	}

	if noRender || arts.ERD == "" {
		return nil
	}

	renderFormats := cfg.ERDFormats
	if formats != "" {
		renderFormats, err = erd.ParseFormats(formats)
		if err != nil {
			return err
		}
	}

	renderer := erd.NewChromeRenderer(outDir, logger)
	if cfg.ChromePath != "" {
		renderer.ExecPath = cfg.ChromePath
	}
	if cfg.RenderTimeout > 0 {
		renderer.Timeout = cfg.RenderTimeout
	}

	if _, err := renderer.Render(ctx, arts.ERD, renderFormats); err != nil {
		return fmt.Errorf("failed to render ERD: %w", err)
	}

	return nil
}

// loadModel builds the schema model from whichever source flag is set.
func loadModel(ctx context.Context, cfg *config.Config) (*schema.Metadata, error) {
	dopts := &schemaforge.DiscoverOptions{
		Tables:     parseTableList(tables),
		SchemaName: schemaName,
	}

	switch {
	case fileID != "":
		return schemaforge.LoadMetadata(cfg.ArtifactsDir, fileID)
	case metadataPath != "":
		return schema.LoadFile(metadataPath, metadataFileID(metadataPath))
	case dbURL != "":
		return schemaforge.DiscoverMetadata(ctx, dbURL, dopts)
	case mysqlURL != "":
		url := mysqlURL
		if !strings.HasPrefix(url, "mysql://") {
			url = "mysql://" + url
		}
		return schemaforge.DiscoverMetadata(ctx, url, dopts)
	default:
		return schemaforge.DiscoverMetadata(ctx, "sqlite://"+sqlitePath, dopts)
	}
}

// parseTableList splits a comma-separated table list, trimming whitespace
func parseTableList(tablesStr string) []string {
	if tablesStr == "" {
		return nil
	}
	tableList := strings.Split(tablesStr, ",")
	for i, t := range tableList {
		tableList[i] = strings.TrimSpace(t)
	}
	return tableList
}

// metadataFileID labels a model loaded from an explicit document path. The
// document conventionally lives at <id>/metadata.json, so the directory name
// is the best label; a differently named file is labeled after the file.
func metadataFileID(path string) string {
	base := filepath.Base(path)
	if base == schemaforge.MetadataFileName {
		dir := filepath.Base(filepath.Dir(path))
		if dir != "." && dir != string(filepath.Separator) {
			return dir
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
