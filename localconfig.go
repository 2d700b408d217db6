package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DeploymentInfo records the app and asset ids of the most recent local
// deploys, so follow-up commands don't need every id on the command line.
type DeploymentInfo struct {
	Network     string `json:"network"`
	RouterAppID uint64 `json:"routerAppId"`
	PassAppID   uint64 `json:"passAppId"`
	TicketASA   uint64 `json:"ticketAsa"`
}

func ConfigFilename() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	cfgPath := filepath.Join(cfgDir, "boxoffice", "boxoffice.json")
	err = os.MkdirAll(filepath.Dir(cfgPath), 0775) // user+group RWX, others RX
	if err != nil {
		return "", fmt.Errorf("error making directory:%s, error:%w", cfgDir, err)
	}
	return cfgPath, nil
}

func SaveDeploymentInfo(info *DeploymentInfo) error {
	// Save by first writing into a temp file and then replacing the config
	// file only if successfully written.
	cfgName, err := ConfigFilename()
	if err != nil {
		return err
	}
	temp, err := os.CreateTemp(filepath.Dir(cfgName), filepath.Base(cfgName)+".*")
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(temp)
	err = encoder.Encode(info)
	if err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return fmt.Errorf("error saving configuration: %w", err)
	}

	err = temp.Close()
	if err != nil {
		return err
	}

	err = os.Rename(temp.Name(), cfgName)
	if err != nil {
		return err
	}
	slog.Info("state saved", "file", cfgName)
	return nil
}

func LoadDeploymentInfo() (*DeploymentInfo, error) {
	cfgName, err := ConfigFilename()
	if err != nil {
		return nil, err
	}
	file, err := os.Open(cfgName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	var info DeploymentInfo
	err = decoder.Decode(&info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}
