// Package loader reads interval files.
//
// Each non-blank, non-comment line holds a start, an end and an optional
// payload separated by tabs or spaces:
//
//	# start  end  payload
//	15       20   a
//	10       30   b
//
// Files may be gzip compressed.
package loader

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/inodb/itree/internal/itree"
)

// Parser reads intervals from a file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// NewParser creates a parser for the given path. Use "-" for stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interval file: %w", err)
	}

	p := &Parser{file: file}

	buf := make([]byte, 2)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read interval file: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek interval file: %w", err)
	}

	// gzip magic number (0x1f, 0x8b)
	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(r)}
}

// Next returns the next interval. It returns false at end of input.
func (p *Parser) Next() (itree.Item[string], bool, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if line == "" && err != nil {
			if err == io.EOF {
				return itree.Item[string]{}, false, nil
			}
			return itree.Item[string]{}, false, fmt.Errorf("read line %d: %w", p.lineNumber+1, err)
		}
		p.lineNumber++

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			if err == io.EOF {
				return itree.Item[string]{}, false, nil
			}
			continue
		}

		item, perr := parseLine(line, p.lineNumber)
		if perr != nil {
			return itree.Item[string]{}, false, fmt.Errorf("line %d: %w", p.lineNumber, perr)
		}
		return item, true, nil
	}
}

// ReadAll reads every remaining interval in file order.
func (p *Parser) ReadAll() ([]itree.Item[string], error) {
	var items []itree.Item[string]
	for {
		item, ok, err := p.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, item)
	}
}

// LineNumber returns the number of lines consumed so far.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the underlying file, if any.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// parseLine splits a line into start, end and payload. A missing payload
// defaults to the line number. The start < end check is left to the tree
// builder.
func parseLine(line string, lineNumber int) (itree.Item[string], error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return itree.Item[string]{}, fmt.Errorf("expected at least 2 fields, got %d", len(fields))
	}

	start, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return itree.Item[string]{}, fmt.Errorf("parse start %q: %w", fields[0], err)
	}
	end, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return itree.Item[string]{}, fmt.Errorf("parse end %q: %w", fields[1], err)
	}

	payload := strconv.Itoa(lineNumber)
	if len(fields) > 2 {
		payload = strings.Join(fields[2:], " ")
	}

	return itree.Item[string]{Left: start, Right: end, Data: payload}, nil
}

// ReadFile reads all intervals from path.
func ReadFile(path string) ([]itree.Item[string], error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ReadAll()
}

// Query is one [Start, End] request read from a query file.
type Query struct {
	Start uint64
	End   uint64
}

// ReadQueries reads "start end" pairs, one per line, from r.
// Extra fields are ignored. Start must not exceed End.
func ReadQueries(r io.Reader) ([]Query, error) {
	p := NewParserFromReader(r)
	var queries []Query
	for {
		item, ok, err := p.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return queries, nil
		}
		if item.Left > item.Right {
			return nil, fmt.Errorf("line %d: query start %d after end %d", p.LineNumber(), item.Left, item.Right)
		}
		queries = append(queries, Query{Start: item.Left, End: item.Right})
	}
}
