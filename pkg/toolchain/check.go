/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package toolchain

import (
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-multierror"

	apperrors "github.com/demokit/crmstack/pkg/errors"
)

// Tool describes a required external binary and where to get it.
type Tool struct {
	Name        string
	InstallHint string
}

// Required lists the binaries the deployment pipeline shells out to.
// kubectl is intentionally absent: all cluster API interaction goes through
// client-go.
func Required() []Tool {
	return []Tool{
		{Name: "kind", InstallHint: "https://kind.sigs.k8s.io/docs/user/quick-start/#installation"},
		{Name: "helm", InstallHint: "https://helm.sh/docs/intro/install/"},
		{Name: "docker", InstallHint: "https://docs.docker.com/get-docker/"},
	}
}

// LookPathFunc resolves a binary name to its path. Injectable for tests.
type LookPathFunc func(name string) (string, error)

// Check verifies that every required tool is present on PATH. All missing
// tools are reported at once so the user can fix them in a single pass.
func Check(lookPath LookPathFunc) error {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var result *multierror.Error
	for _, tool := range Required() {
		if _, err := lookPath(tool.Name); err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"%s not found in PATH (install: %s)", tool.Name, tool.InstallHint))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodePrerequisite, "missing required tools", err)
	}
	return nil
}
