/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */
package main

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coldb/coldb/pkg/elog"
)

var log elog.View = elog.Discard

var flagDBRoot string
var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "coldbctl",
	Short: "coldb command-line interface",
	Long:  "coldbctl loads CSV data into a coldb database and runs queries against it.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("coldbctl 0.0.0")
	},
}

func commandInit() {
	home, err := homedir.Dir()
	if err != nil {
		home = "."
	}
	defaultRoot := home + "/.coldb"

	rootCmd.PersistentFlags().StringVar(&flagDBRoot, "db", defaultRoot, "database root directory")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")

	viper.SetEnvPrefix("COLDB")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger := &elog.CLI{}
		if flagVerbose {
			logger.IsVerbose = true
		}
		logrus.SetFormatter(logger)
		logrus.SetLevel(logrus.InfoLevel)
		log = logger
		if viper.IsSet("db") {
			flagDBRoot = viper.GetString("db")
		}
		return nil
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
}
