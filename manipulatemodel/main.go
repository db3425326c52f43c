package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/msnoigrs/govaporetto/model"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

func exitCode(err error) int {
	var me *model.ModelError
	var de *model.DictError
	switch {
	case errors.As(err, &me):
		return 2
	case errors.As(err, &de):
		return 3
	}
	return 5
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(exitCode(err))
}

func loadModel(path string) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	br := bufio.NewReader(f)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return model.Read(zr)
	}
	return model.Read(br)
}

func writeModel(path string, m *model.Model, compress bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if compress {
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if err := m.Write(zw); err != nil {
			zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
	} else if err := m.Write(w); err != nil {
		return err
	}
	return w.Flush()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage of %s:
	%s -model file -dump file
	%s -model file -replace file -o file [-z]

Dumps the model's dictionary to CSV, or replaces it from CSV and writes the
edited model.

Options:
`, os.Args[0], os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}

	var (
		modelpath   string
		dumppath    string
		replacepath string
		outputpath  string
		compress    bool
	)
	flag.StringVar(&modelpath, "model", "", "model file (optionally zstd-compressed)")
	flag.StringVar(&dumppath, "dump", "", "write the dictionary as CSV to file")
	flag.StringVar(&replacepath, "replace", "", "read a replacement dictionary CSV from file")
	flag.StringVar(&outputpath, "o", "", "output model file for -replace")
	flag.BoolVar(&compress, "z", false, "zstd-compress the output model")

	flag.Parse()

	if modelpath == "" || (dumppath == "" && replacepath == "") ||
		(replacepath != "" && outputpath == "") {
		flag.Usage()
		os.Exit(1)
	}

	p := message.NewPrinter(language.English)

	m, err := loadModel(modelpath)
	if err != nil {
		fail(err)
	}

	if dumppath != "" {
		f, err := os.OpenFile(dumppath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			fail(err)
		}
		w := bufio.NewWriter(f)
		if err := model.WriteDictionaryCSV(w, m.DumpDictionary()); err != nil {
			f.Close()
			fail(err)
		}
		if err := w.Flush(); err != nil {
			f.Close()
			fail(err)
		}
		if err := f.Close(); err != nil {
			fail(err)
		}
		p.Fprintf(os.Stderr, "dumped %d dictionary words\n", len(m.Dict))
	}

	if replacepath != "" {
		f, err := os.Open(replacepath)
		if err != nil {
			fail(err)
		}
		dict, err := model.ReadDictionaryCSV(f)
		f.Close()
		if err != nil {
			fail(err)
		}
		start := time.Now()
		nm, err := m.ReplaceDictionary(dict)
		if err != nil {
			fail(err)
		}
		if err := writeModel(outputpath, nm, compress); err != nil {
			fail(err)
		}
		p.Fprintf(os.Stderr, "replaced dictionary with %d words in %v\n",
			len(dict), time.Since(start))
	}
}
