//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package's tests.
func (Test) Unit() error {
	if _, err := executeCmd("go", withArgs("test", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the tests with the race detector and coverage on.
func (Test) Cover() error {
	if _, err := executeCmd("go", withArgs("test", "-race", "-cover", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}
