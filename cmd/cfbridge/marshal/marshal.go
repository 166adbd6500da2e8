package marshal

import (
	"fmt"
	"github.com/openziti/cfbridge"
	cmd "github.com/openziti/cfbridge/cmd/cfbridge/cfbridge"
	"github.com/openziti/cfbridge/sim"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"os"
	"runtime"
)

func init() {
	marshalCmd.Flags().IntVarP(&rounds, "rounds", "n", 1, "Number of conversion rounds")
	marshalCmd.Flags().BoolVarP(&showLive, "live", "l", false, "List live sim objects after the run")
	cmd.RootCmd.AddCommand(marshalCmd)
}

var marshalCmd = &cobra.Command{
	Use:   "marshal <file>",
	Short: "Convert a YAML document into native objects and back",
	Args:  cobra.ExactArgs(1),
	Run:   marshal,
}
var rounds int
var showLive bool

func marshal(_ *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		logrus.Fatalf("error reading [%s] (%v)", args[0], err)
	}
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		logrus.Fatalf("error parsing [%s] (%v)", args[0], err)
	}
	v, err := cfbridge.ValueOf(doc)
	if err != nil {
		logrus.Fatalf("error converting [%s] (%v)", args[0], err)
	}

	env, err := cmd.OpenEnv("marshal")
	if err != nil {
		logrus.Fatalf("error opening runtime (%v)", err)
	}
	defer cmd.CloseEnv(env)

	stack, unlock := cfbridge.LockedPoolStack(env.Runtime)
	defer unlock()

	for i := 0; i < rounds; i++ {
		out, err := cfbridge.AutoreleasepoolValue(stack, func() (cfbridge.Value, error) {
			return roundTrip(env.Runtime, stack, v)
		})
		if err != nil {
			logrus.Fatalf("error in round [%d] (%v)", i, err)
		}
		if i == rounds-1 {
			text, err := yaml.Marshal(cfbridge.Interface(out))
			if err != nil {
				logrus.Fatalf("error encoding result (%v)", err)
			}
			fmt.Print(string(text))
		}
	}

	runtime.GC()
	if rt, ok := env.Native.(*sim.Runtime); ok && showLive {
		for _, info := range rt.Live() {
			logrus.Infof("live [%s] %s count [%d]", info.Ref, info.Class, info.Count)
		}
	}
}

func roundTrip(rt cfbridge.Runtime, stack *cfbridge.PoolStack, v cfbridge.Value) (cfbridge.Value, error) {
	obj, err := cfbridge.ToNative(rt, v)
	if err != nil {
		return nil, errors.Wrap(err, "to native")
	}
	logrus.Debugf("converted to %s", obj)

	o, err := cfbridge.BridgeRetained(obj, cfbridge.ClassAny)
	if err != nil {
		return nil, err
	}
	b, err := stack.Autorelease(o)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("autoreleased %s into pool at depth [%d]", b, stack.Depth())

	return cfbridge.FromNative(obj)
}
