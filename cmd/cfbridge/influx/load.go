package influx

import (
	"fmt"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/openziti/cfbridge"
	"github.com/openziti/cfbridge/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"path/filepath"
	"time"
)

func init() {
	influxLoadCmd.Flags().BoolVarP(&retime, "retime", "t", false, "Shift timestamps so the latest sample lands at the current time")
	influxCmd.AddCommand(influxLoadCmd)
}

var influxLoadCmd = &cobra.Command{
	Use:   "load <metricsRoot>",
	Short: "Load metrics instrument samples into InfluxDB",
	Args:  cobra.ExactArgs(1),
	Run:   influxLoad,
}
var retime bool

func influxLoad(_ *cobra.Command, args []string) {
	metricsMap, err := util.DiscoverMetrics(args[0])
	if err != nil {
		logrus.Fatalf("error discovering metrics (%v)", err)
	}

	var shift time.Duration
	if retime {
		latest, err := findLatestTimestamp(metricsMap)
		if err != nil {
			logrus.Fatalf("error scanning timestamps (%v)", err)
		}
		if !latest.IsZero() {
			shift = time.Since(latest)
		}
		logrus.Infof("retiming samples by [%s]", shift)
	}

	authToken := ""
	if influxDbUsername != "" || influxDbPassword != "" {
		authToken = fmt.Sprintf("%s:%s", influxDbUsername, influxDbPassword)
	}
	client := influxdb2.NewClient(influxDbUrl, authToken)
	defer client.Close()
	writeApi := client.WriteAPI("", influxDbDatabase)

	for metricsRoot, metricsId := range metricsMap {
		if metricsId.Id != "cfbridge" {
			logrus.Warnf("skipping [%s] with id [%s]", metricsRoot, metricsId.Id)
			continue
		}
		instance := metricsId.Values["instance"]
		for _, dataset := range cfbridge.Datasets {
			samples, err := util.ReadSamples(filepath.Join(metricsRoot, dataset+".csv"))
			if err != nil {
				logrus.Fatalf("error reading dataset [%s] of [%s] (%v)", dataset, metricsRoot, err)
			}
			for _, sample := range samples {
				p := influxdb2.NewPoint(dataset, nil, map[string]interface{}{"v": sample.V}, sample.Ts.Add(shift)).AddTag("instance", instance)
				writeApi.WritePoint(p)
			}
			logrus.Infof("wrote [%d] points for instance [%s] dataset [%s]", len(samples), instance, dataset)
		}
	}
	writeApi.Flush()
	logrus.Infof("complete")
}

func findLatestTimestamp(metricsMap map[string]*util.MetricsId) (time.Time, error) {
	latest := time.Time{}
	for metricsRoot, metricsId := range metricsMap {
		if metricsId.Id != "cfbridge" {
			continue
		}
		for _, dataset := range cfbridge.Datasets {
			samples, err := util.ReadSamples(filepath.Join(metricsRoot, dataset+".csv"))
			if err != nil {
				return time.Time{}, err
			}
			if len(samples) > 0 && samples[len(samples)-1].Ts.After(latest) {
				latest = samples[len(samples)-1].Ts
			}
		}
	}
	return latest, nil
}
