package main

import (
	"github.com/michaelquigley/pfxlog"
	_ "github.com/openziti/cfbridge/cmd/cfbridge/bridge"
	"github.com/openziti/cfbridge/cmd/cfbridge/cfbridge"
	_ "github.com/openziti/cfbridge/cmd/cfbridge/influx"
	_ "github.com/openziti/cfbridge/cmd/cfbridge/marshal"
	"github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

func init() {
	pfxlog.Global(logrus.InfoLevel)
	pfxlog.SetPrefix("github.com/openziti/")
}

func main() {
	stop := dumpOnQuit()
	defer stop()

	if err := cfbridge.RootCmd.Execute(); err != nil {
		logrus.Fatalf("error (%v)", err)
	}
	logrus.Debugf("finished")
}

// dumpOnQuit logs every goroutine stack each time the process receives SIGQUIT, which also
// shows the threads pinned to autorelease pool stacks. The returned function stops listening.
func dumpOnQuit() func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGQUIT)
	done := make(chan struct{})
	go func() {
		buf := make([]byte, 1<<20)
		for {
			select {
			case <-sigs:
				n := runtime.Stack(buf, true)
				logrus.Warnf("received SIGQUIT, goroutine dump follows\n%s", buf[:n])
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
