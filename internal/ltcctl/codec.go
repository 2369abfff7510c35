package ltcctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/tinarmengineering/ltc/pkg/quantity"
)

// Decode reads a wire quantity, or a JSON array of named quantities, from path (standard in when
// path is empty or "-") and prints it in base units. Every named record is attempted and all
// failures are reported together.
func (a *App) Decode(path string) error {
	data, err := a.readInput(path)
	if err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []quantity.NamedQuantity
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return errors.Wrap(err, "parsing named quantities")
		}
		return a.printNamed(records)
	}

	rec := &quantity.WireQuantity{}
	if err := json.Unmarshal(trimmed, rec); err != nil {
		return errors.Wrap(err, "parsing quantity")
	}
	q, err := quantity.Decode(a.Registry, rec)
	if err != nil {
		return err
	}
	a.printf("%s\n", q)
	return nil
}

func (a *App) printNamed(records []quantity.NamedQuantity) error {
	a.outMutex.Lock()
	defer a.outMutex.Unlock()

	var result *multierror.Error
	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	fmt.Fprintf(w, "SECTION\tNAME\tVALUE\n")
	for _, record := range records {
		q, err := record.Decode(a.Registry)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", record.Section, record.Name, q)
	}
	if err := w.Flush(); err != nil {
		return errors.WithStack(err)
	}
	return result.ErrorOrNil()
}

// Encode prints the wire record of values in the units given by expr. One value with no shape
// is a scalar; otherwise values are laid out row-major in shape, or as a plain array when no
// shape is given.
func (a *App) Encode(expr string, values []float64, shape []int) error {
	u, err := a.Registry.Parse(expr)
	if err != nil {
		return err
	}
	q, err := quantity.New(values, u, shape...)
	if err != nil {
		return err
	}
	rec, err := quantity.Encode(a.Registry, q)
	if err != nil {
		return err
	}

	a.outMutex.Lock()
	defer a.outMutex.Unlock()
	encoder := json.NewEncoder(a.Out)
	encoder.SetIndent("", "  ")
	return errors.WithStack(encoder.Encode(rec))
}

func (a *App) readInput(path string) ([]byte, error) {
	var r io.Reader
	switch path {
	case "", "-":
		r = a.In
	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer file.Close()
		r = file
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return data, nil
}
