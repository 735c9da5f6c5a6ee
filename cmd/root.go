package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/parafetch/parafetch/internal"
	"github.com/parafetch/parafetch/internal/output"
	"github.com/parafetch/parafetch/utils"
)

var (
	outputPath    string
	title         string
	connections   int
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	urlListFile   string
	debug         bool
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "parafetch [url]",
	Short:   "Parafetch downloads a file over parallel byte-range connections",
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		if len(args) == 0 && urlListFile == "" {
			output.PrintError("No URL or URL list provided")
			os.Exit(1)
		}
		if urlListFile != "" && len(args) > 0 {
			output.PrintError("Cannot specify url argument and --urllist together, choose one")
			os.Exit(1)
		}
		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		// Check if proxy URL contains auth
		parsedProxy, err := u.Parse(proxyURL)
		if err == nil && parsedProxy.User != nil && proxyUsername == "" {
			proxyUsername = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				proxyPassword = password
			}
			parsedProxy.User = nil
			proxyURL = parsedProxy.String()
		}
		clientConfig := utils.HTTPClientConfig{
			Timeout:       timeout,
			KATimeout:     kaTimeout,
			ProxyURL:      proxyURL,
			ProxyUsername: proxyUsername,
			ProxyPassword: proxyPassword,
			UserAgent:     userAgent,
			Headers:       utils.ParseHeaderArgs(headers),
		}
		var entries []utils.DownloadEntry
		if urlListFile != "" {
			entries, err = utils.ReadDownloadList(urlListFile)
			if err != nil {
				output.PrintError("Failed to read URL list file")
				os.Exit(1)
			}
		} else {
			entries = []utils.DownloadEntry{{URL: args[0], OutputPath: outputPath, Title: title}}
		}
		// Entries download one after another; each invocation of the core
		// handles exactly one resource.
		failures := 0
		for _, entry := range entries {
			if err := downloadEntry(entry, clientConfig); err != nil {
				output.PrintError(fmt.Sprintf("%s %v", output.StyleSymbols["fail"], err))
				failures++
			}
		}
		if failures > 0 {
			os.Exit(1)
		}
	},
}

func downloadEntry(entry utils.DownloadEntry, clientConfig utils.HTTPClientConfig) error {
	dest := entry.OutputPath
	if dest == "" {
		parsedURL, err := u.Parse(entry.URL)
		if err != nil {
			return fmt.Errorf("invalid URL format: %v", err)
		}
		dest = path.Base(parsedURL.Path)
		if dest == "." || dest == "/" || dest == "" {
			return fmt.Errorf("cannot infer output file name from %s, use --output", entry.URL)
		}
	}
	if _, err := os.Stat(dest); err == nil {
		dest = utils.RenewOutputPath(dest)
	}
	displayTitle := entry.Title
	if displayTitle == "" {
		displayTitle = filepath.Base(dest)
	}
	req := internal.DownloadRequest{
		URL:         entry.URL,
		Title:       displayTitle,
		OutputPath:  dest,
		Connections: connections,
	}
	if err := internal.Download(req, clientConfig); err != nil {
		return err
	}
	output.PrintSuccess(fmt.Sprintf("%s Saved to %s", output.StyleSymbols["pass"], dest))
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (inferred from the URL if not provided)")
	rootCmd.Flags().StringVar(&title, "title", "", "Display title for progress (defaults to the output file name)")
	rootCmd.Flags().StringVarP(&urlListFile, "urllist", "l", "", "Path to YAML file containing URLs and output paths")
	rootCmd.Flags().IntVarP(&connections, "connections", "c", 8, "Number of connections per download")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", utils.DefaultTimeout, "Connection timeout (eg. 5s, 10m)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", utils.DefaultKATimeout, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser UA)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")

	// flags without shorthand
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
