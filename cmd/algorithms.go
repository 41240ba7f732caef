package cmd

import (
	"fmt"

	"github.com/PolarWolf314/confseal/internal/protection"
	"github.com/PolarWolf314/confseal/internal/ui"
	"github.com/spf13/cobra"
)

var algorithmsJSON bool

func init() {
	algorithmsCmd.Flags().BoolVar(&algorithmsJSON, "json", false, "output in JSON format")
}

func resetAlgorithmsCommandState() {
	algorithmsJSON = false
}

// AlgorithmInfo is the JSON form of one registry entry.
type AlgorithmInfo struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	KeyBits     int    `json:"key_bits,omitempty"`
	IVBytes     int    `json:"iv_bytes,omitempty"`
	Implemented bool   `json:"implemented"`
	Default     bool   `json:"default,omitempty"`
}

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List the encryption algorithms confseal recognizes",
	Long: `Lists the payload ciphers and key-wrap algorithms of the XML encryption
registry. Payload ciphers can be passed to 'confseal protect --algorithm'
by name (for example aes256) or by identifier.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var infos []AlgorithmInfo
		for _, alg := range protection.Algorithms() {
			infos = append(infos, AlgorithmInfo{
				Name:        alg.Name,
				ID:          alg.ID,
				Kind:        alg.Kind.String(),
				KeyBits:     alg.KeyBits,
				IVBytes:     alg.IVBytes,
				Implemented: alg.Implemented,
				Default:     alg.ID == protection.DefaultPayloadAlgorithm || alg.ID == protection.DefaultKeyWrapAlgorithm,
			})
		}

		if algorithmsJSON {
			return outputJSON(infos)
		}

		fmt.Printf("%-16s %-9s %-5s %-3s %s\n", "NAME", "KIND", "KEY", "IV", "IDENTIFIER")
		for _, info := range infos {
			key, iv := "-", "-"
			if info.KeyBits > 0 {
				key = fmt.Sprint(info.KeyBits)
				iv = fmt.Sprint(info.IVBytes)
			}
			line := fmt.Sprintf("%-16s %-9s %-5s %-3s %s", info.Name, info.Kind, key, iv, info.ID)
			switch {
			case !info.Implemented:
				line += " " + ui.Muted.Sprint("not implemented")
			case info.Default:
				line += " " + ui.Success.Sprint("default")
			}
			fmt.Println(line)
		}
		return nil
	},
}
