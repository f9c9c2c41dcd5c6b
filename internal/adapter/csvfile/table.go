package csvfile

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
)

// Table adapts a gota DataFrame to domain.Table. Every column is held as
// strings exactly as they appeared in the file.
type Table struct {
	df dataframe.DataFrame
}

// ReadTable parses CSV from r. Type detection is off and no value is treated
// as missing, so cells survive verbatim.
func ReadTable(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}
	return &Table{df: df}, nil
}

// ReadTableFile opens path and parses it with ReadTable.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func (t *Table) Names() []string { return t.df.Names() }

func (t *Table) Nrow() int { return t.df.Nrow() }

func (t *Table) Column(name string) ([]string, error) {
	for _, n := range t.df.Names() {
		if n == name {
			return t.df.Col(name).Records(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q (have %q)", domain.ErrMissingColumn, name, t.df.Names())
}
