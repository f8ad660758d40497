package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"orderdesk/internal/domain"
)

// ItemWriter receives the parsed line items.
type ItemWriter interface {
	AddItem(ctx context.Context, productID domain.ID) error
	SetQuantity(itemID domain.ID, qty int) error
}

// Line is one requested line item.
type Line struct {
	ProductID domain.ID
	Quantity  int
}

// CSVImporter reads nomenclature,quantity rows; Apply adds them to a draft.
type CSVImporter struct {
	reader *csv.Reader
}

func NewCSVImporter(r io.Reader) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	csvr.Comment = '#'
	return &CSVImporter{reader: csvr}
}

// Parse reads every row. Rows repeating a product add to its quantity.
func (i *CSVImporter) Parse() ([]Line, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := lookupColumn(index, idColumns); !ok {
		return nil, fmt.Errorf("missing nomenclature column in headers %v", headers)
	}

	var (
		lines []Line
		pos   = map[domain.ID]int{}
		row   = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		line, skip, err := parseRow(record, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if skip {
			continue
		}
		if at, ok := pos[line.ProductID]; ok {
			lines[at].Quantity += line.Quantity
			continue
		}
		pos[line.ProductID] = len(lines)
		lines = append(lines, line)
	}
	return lines, nil
}

// Apply adds each line and sets its quantity. It stops at the first error and
// reports how many lines were applied.
func Apply(ctx context.Context, w ItemWriter, lines []Line) (int, error) {
	for n, line := range lines {
		if err := w.AddItem(ctx, line.ProductID); err != nil {
			return n, fmt.Errorf("add item %s: %w", line.ProductID, err)
		}
		if line.Quantity != 1 {
			if err := w.SetQuantity(line.ProductID, line.Quantity); err != nil {
				return n, fmt.Errorf("set quantity of %s: %w", line.ProductID, err)
			}
		}
	}
	return len(lines), nil
}

// ParseItemArg parses an "id" or "id:qty" item argument.
func ParseItemArg(arg string) (Line, error) {
	idPart, qtyPart, hasQty := strings.Cut(strings.TrimSpace(arg), ":")
	id, err := domain.ParseID(idPart)
	if err != nil {
		return Line{}, err
	}
	qty := 1
	if hasQty {
		qty, err = strconv.Atoi(strings.TrimSpace(qtyPart))
		if err != nil {
			return Line{}, fmt.Errorf("invalid quantity in %q", arg)
		}
	}
	if qty < 1 {
		return Line{}, fmt.Errorf("%w: %q", domain.ErrInvalidQuantity, arg)
	}
	return Line{ProductID: id, Quantity: qty}, nil
}

var (
	idColumns  = []string{"nomenclature", "product_id", "id"}
	qtyColumns = []string{"quantity", "qty"}
)

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func lookupColumn(index map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := index[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func parseRow(record []string, index map[string]int) (Line, bool, error) {
	idStr := pick(record, index, idColumns)
	qtyStr := pick(record, index, qtyColumns)
	if idStr == "" && qtyStr == "" {
		return Line{}, true, nil
	}
	id, err := domain.ParseID(idStr)
	if err != nil {
		return Line{}, false, err
	}
	qty := 1
	if qtyStr != "" {
		qty, err = strconv.Atoi(qtyStr)
		if err != nil {
			return Line{}, false, fmt.Errorf("invalid quantity %q", qtyStr)
		}
	}
	if qty < 1 {
		return Line{}, false, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}
	return Line{ProductID: id, Quantity: qty}, false, nil
}

func pick(record []string, index map[string]int, names []string) string {
	i, ok := lookupColumn(index, names)
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
