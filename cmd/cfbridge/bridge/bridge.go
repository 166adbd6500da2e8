package bridge

import (
	"github.com/openziti/cfbridge"
	cmd "github.com/openziti/cfbridge/cmd/cfbridge/cfbridge"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	bridgeCmd.Flags().StringVarP(&text, "text", "t", "hello", "String to bridge")
	cmd.RootCmd.AddCommand(bridgeCmd)
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Walk a native string through every bridging cast, reporting retain counts",
	Args:  cobra.NoArgs,
	Run:   bridge,
}
var text string

func bridge(_ *cobra.Command, _ []string) {
	env, err := cmd.OpenEnv("bridge")
	if err != nil {
		logrus.Fatalf("error opening runtime (%v)", err)
	}
	defer cmd.CloseEnv(env)
	rt := env.Runtime

	obj, err := cfbridge.NewString(rt, text)
	if err != nil {
		logrus.Fatalf("error creating string (%v)", err)
	}
	report := func(step string) {
		count, err := rt.RetainCount(obj.Ref())
		if err != nil {
			logrus.Fatalf("error reading retain count (%v)", err)
		}
		logrus.Infof("%-18s %s count [%d]", step, obj, count)
	}
	report("created")

	b, err := cfbridge.Bridge(obj, cfbridge.ClassString)
	if err != nil {
		logrus.Fatalf("bridge (%v)", err)
	}
	report("bridge")

	o, err := b.Retain()
	if err != nil {
		logrus.Fatalf("retain (%v)", err)
	}
	report("retain")

	transferred, err := cfbridge.BridgeTransfer(o, cfbridge.ClassString)
	if err != nil {
		logrus.Fatalf("bridge transfer (%v)", err)
	}
	report("bridge transfer")

	s, err := cfbridge.BridgeUseValue(transferred, cfbridge.ClassString, func(o *cfbridge.Owned) (string, error) {
		report("bridge use")
		return env.Runtime.StringValue(o.Ref())
	})
	if err != nil {
		logrus.Fatalf("bridge use (%v)", err)
	}
	report("after use")

	if _, err := cfbridge.Bridge(obj, cfbridge.ClassData); err != nil {
		logrus.Infof("cast to [%s] refused (%v)", cfbridge.ClassData, err)
	}
	logrus.Infof("value '%s'", s)
}
