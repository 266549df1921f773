// Package svcinstall registers an executable as a long-running background
// service, starts it and reports the state the host settles in.
//
// The routine flows Resolver → Registrar → Verifier. Each step talks to
// the host through a Backend, so the same code drives NSSM-style service
// wrappers, systemd, runit, the Windows Service Control Manager or an
// in-memory registry:
//
//	backend, err := svcinstall.NewBackend(svcinstall.BackendConfig{
//	    Type:        svcinstall.BackendWrapper,
//	    ManagerPath: `C:\tools\nssm.exe`,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	desc := svcinstall.ServiceDescriptor{
//	    Name:       "Worker1",
//	    Executable: `C:\Python\python.exe`,
//	    Args:       []string{`C:\Program Files\app\run.py`},
//	}
//	if err := svcinstall.NewRegistrar(backend).Register(ctx, desc); err != nil {
//	    log.Fatal(err)
//	}
//
//	state, err := svcinstall.NewVerifier(backend).Activate(ctx, "Worker1")
//
// # Installer
//
// Installer bundles the whole routine: it resolves the manager and the
// interpreter on the search path, expands the argument template around the
// script, registers the service, starts it and echoes each step to an
// io.Writer:
//
//	in := svcinstall.NewInstaller(svcinstall.BackendConfig{Type: svcinstall.BackendSystemd})
//	in.Out = os.Stdout
//	result, err := in.Install(ctx, svcinstall.InstallSpec{
//	    Name:        "Worker1",
//	    Interpreter: "python3",
//	    Script:      "/opt/app/run.py",
//	})
//
// # Errors
//
// Every failure maps onto a small taxonomy (ErrNotFound, ErrAlreadyExists,
// ErrPermissionDenied, ErrInvalidArgument, ErrStartFailed, ErrNotInstalled,
// ErrTimeout) that matches with errors.Is. KindOf classifies any error and
// ExitCode recovers the native exit code of a failed host command.
//
// An existing registration is never overwritten unless the registrar uses
// PolicyReplace.
package svcinstall
