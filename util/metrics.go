package util

import (
	"bufio"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const metricsIdFile = "metrics.id"

// MetricsId describes the producer of a directory of sample files.
type MetricsId struct {
	Id     string            `json:"id"`
	Values map[string]string `json:"values,omitempty"`
}

func WriteMetricsId(id, outPath string, values map[string]string) error {
	data, err := json.MarshalIndent(&MetricsId{Id: id, Values: values}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal metrics id")
	}
	if err := os.WriteFile(filepath.Join(outPath, metricsIdFile), data, os.ModePerm); err != nil {
		return errors.Wrapf(err, "write metrics id to [%s]", outPath)
	}
	return nil
}

func ReadMetricsId(path string) (*MetricsId, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	metricsId := &MetricsId{}
	if err := json.Unmarshal(data, metricsId); err != nil {
		return nil, errors.Wrapf(err, "unmarshal [%s]", path)
	}
	return metricsId, nil
}

// DiscoverMetrics finds every directory below root holding a metrics id, keyed by directory.
func DiscoverMetrics(root string) (map[string]*MetricsId, error) {
	metricsMap := make(map[string]*MetricsId)
	err := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || filepath.Base(path) != metricsIdFile {
			return nil
		}
		metricsId, err := ReadMetricsId(path)
		if err != nil {
			return errors.Wrapf(err, "error reading [%s]", path)
		}
		metricsMap[filepath.Dir(path)] = metricsId
		return nil
	})
	if err != nil {
		return nil, err
	}
	return metricsMap, nil
}

type Sample struct {
	Ts time.Time
	V  int64
}

// WriteSamples writes samples to <outPath>/<name>.csv, one "unixNanos,value" line each.
func WriteSamples(name, outPath string, samples []*Sample) error {
	path := filepath.Join(outPath, fmt.Sprintf("%s.csv", name))
	oF, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.ModePerm)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(oF)
	for _, sample := range samples {
		if _, err := fmt.Fprintf(w, "%d,%d\n", sample.Ts.UnixNano(), sample.V); err != nil {
			_ = oF.Close()
			return errors.Wrapf(err, "write [%s]", path)
		}
	}
	if err := w.Flush(); err != nil {
		_ = oF.Close()
		return errors.Wrapf(err, "flush [%s]", path)
	}
	if err := oF.Close(); err != nil {
		return err
	}
	logrus.Infof("wrote [%d] samples to [%s]", len(samples), path)
	return nil
}

// ReadSamples reads a file written by WriteSamples, in timestamp order.
func ReadSamples(path string) ([]*Sample, error) {
	iF, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = iF.Close() }()

	var samples []*Sample
	scanner := bufio.NewScanner(iF)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		tokens := strings.Split(text, ",")
		if len(tokens) != 2 {
			return nil, errors.Errorf("malformed sample at [%s:%d]", path, line)
		}
		ts, err := strconv.ParseInt(tokens[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "timestamp at [%s:%d]", path, line)
		}
		v, err := strconv.ParseInt(tokens[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "value at [%s:%d]", path, line)
		}
		samples = append(samples, &Sample{Ts: time.Unix(0, ts), V: v})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Ts.Before(samples[j].Ts) })
	return samples, nil
}
