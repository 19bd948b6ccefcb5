package main

import (
	"context"

	"github.com/trezcool/matokeo/core"
)

// createAdmin ensures the admin account exists; an existing account is left
// untouched, password included.
func (cli *commandLine) createAdmin(uname string) error {
	uname = core.CleanString(uname, true /* lower */)
	return cli.usrSvc.EnsureDefaultAdmin(context.Background(), uname, cli.conf.Admin.InitialPassword)
}
