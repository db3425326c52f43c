package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/msnoigrs/govaporetto"
	"github.com/msnoigrs/govaporetto/model"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

func exitCode(err error) int {
	var ie *govaporetto.InputError
	var me *model.ModelError
	var de *model.DictError
	var te *govaporetto.TagError
	switch {
	case errors.As(err, &ie):
		return 1
	case errors.As(err, &me):
		return 2
	case errors.As(err, &de):
		return 3
	case errors.As(err, &te):
		return 4
	}
	return 5
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(exitCode(err))
}

// loadModel reads a model file, transparently decompressing the usual
// Zstandard wrapping.
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

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage of %s:
	%s -model file [-tags] [-scores] [-normalize]

Reads one sentence per line from standard input and writes the tokenized
form to standard output.

Options:
`, os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}

	var (
		modelpath string
		tags      bool
		scores    bool
		normalize bool
		nocache   bool
	)
	flag.StringVar(&modelpath, "model", "", "model file (optionally zstd-compressed)")
	flag.BoolVar(&tags, "tags", false, "predict tags")
	flag.BoolVar(&scores, "scores", false, "print boundary scores to stderr")
	flag.BoolVar(&normalize, "normalize", false, "NFKC-normalize input before prediction")
	flag.BoolVar(&nocache, "nocache", false, "disable the type score cache")

	flag.Parse()

	if modelpath == "" {
		flag.Usage()
		os.Exit(1)
	}

	p := message.NewPrinter(language.English)

	start := time.Now()
	m, err := loadModel(modelpath)
	if err != nil {
		fail(err)
	}
	pred, err := govaporetto.NewPredictor(m, govaporetto.Config{
		PredictTags:     tags,
		CacheTypeScores: !nocache,
		FixWeightLength: true,
	})
	if err != nil {
		fail(err)
	}
	p.Fprintf(os.Stderr, "loaded %d char n-grams, %d type n-grams, %d dictionary words in %v\n",
		len(m.CharNgrams), len(m.TypeNgrams), len(m.Dict), time.Since(start))

	var filter govaporetto.StringFilter
	if normalize {
		filter = govaporetto.NewUnicodeNormalizeFilter()
	}

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for in.Scan() {
		line := in.Text()
		if line == "" {
			fmt.Fprintln(out)
			continue
		}
		if filter != nil {
			line = filter.FilterString(line)
		}
		s, err := govaporetto.NewSentenceFromRaw(line)
		if err != nil {
			fail(err)
		}
		pred.Predict(s)
		if err := s.WriteTokenized(out); err != nil {
			fail(err)
		}
		fmt.Fprintln(out)
		if scores {
			parts := make([]string, len(s.BoundaryScores()))
			for i, y := range s.BoundaryScores() {
				parts[i] = fmt.Sprintf("%d:%d", i, y)
			}
			fmt.Fprintf(os.Stderr, "%s\n", strings.Join(parts, " "))
		}
	}
	if err := in.Err(); err != nil {
		fail(err)
	}
}
