package cfbridge

import (
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().StringVar(&profileMode, "profile", "", "Profile the run ("+strings.Join(ProfileModes(), ", ")+")")
	RootCmd.PersistentFlags().StringVar(&profilePath, "profile-path", ".", "Directory receiving profile output")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")
	RootCmd.PersistentFlags().StringVarP(&SelectedRuntime, "runtime", "r", "", "Override the configured runtime (sim, corefoundation)")
	RootCmd.PersistentFlags().BoolVarP(&configDump, "dump", "d", false, "Dump the processed config")
}

var RootCmd = &cobra.Command{
	Use:   strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0])),
	Short: "Native Reference Bridge Tooling",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		if profileMode == "" {
			return nil
		}
		mode, err := profileOption(profileMode)
		if err != nil {
			return err
		}
		// pkg/profile allows one running profile per process
		running = profile.Start(mode, profile.ProfilePath(profilePath), profile.NoShutdownHook)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if running != nil {
			running.Stop()
			running = nil
		}
	},
}

var profiles = map[string]func(*profile.Profile){
	"cpu":       profile.CPUProfile,
	"memory":    profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"block":     profile.BlockProfile,
	"goroutine": profile.GoroutineProfile,
}

// ProfileModes lists the values accepted by --profile.
func ProfileModes() []string {
	var modes []string
	for mode := range profiles {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

func profileOption(mode string) (func(*profile.Profile), error) {
	option, found := profiles[strings.ToLower(mode)]
	if !found {
		return nil, errors.Errorf("unknown profile mode [%s], expected one of %v", mode, ProfileModes())
	}
	return option, nil
}

var verbose bool
var SelectedRuntime string
var profileMode string
var profilePath string
var running interface{ Stop() }
var configPath string
var configDump bool
