package main

import (
	"context"

	"github.com/trezcool/matokeo/core"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	uname = core.CleanString(uname, true /* lower */)
	return cli.usrSvc.SetPassword(context.Background(), uname, pwd)
}
