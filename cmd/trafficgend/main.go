package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/netgenlab/trafficgen/pkg/api"
	"github.com/netgenlab/trafficgen/pkg/control"
	"github.com/netgenlab/trafficgen/pkg/pool"
)

func main() {
	addr := flag.String("listen", ":8080", "REST control surface listen address")
	poolCapacity := flag.Int("pool-capacity", pool.DefaultCapacity, "packet pool buffer count")
	poolBufSize := flag.Int("pool-buffer-size", pool.DefaultBufferSize, "packet pool buffer size in bytes")
	flag.Parse()

	engine, err := control.New(*poolCapacity, *poolBufSize)
	if err != nil {
		logrus.WithError(err).Fatal("trafficgend: init engine")
	}

	srv := api.NewServer(engine)

	logrus.WithField("addr", *addr).Info("trafficgend: listening")
	if err := srv.ListenAndServe(*addr); err != nil {
		logrus.WithError(err).Error("trafficgend: server exited")
		os.Exit(1)
	}
}
