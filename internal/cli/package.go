package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shaiso/Deployer/internal/archive"
	"github.com/shaiso/Deployer/internal/resolver"
)

// newPackageCmd создаёт группу команд для работы с пакетами без flow.
func newPackageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Fetch, import and extract packages in the local cache",
	}

	cmd.AddCommand(
		newPackageFetchCmd(app),
		newPackageImportCmd(app),
		newPackageExtractCmd(app),
	)

	return cmd
}

// cacheTarget возвращает путь в кэше. Относительный target
// отсчитывается от cache_dir.
func (a *App) cacheTarget(target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(a.cfg.CacheDir, target)
}

func newPackageFetchCmd(app *App) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "fetch <package> <target>",
		Short: "Download a package from the package server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolvePackage(cmd, app, app.remote(baseURL), args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Package server URL (default: package_base_url)")
	return cmd
}

func newPackageImportCmd(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "import <package> <target>",
		Short: "Copy a package from the offline package directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := app.local(dir)
			if err != nil {
				return err
			}
			return resolvePackage(cmd, app, local, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Offline package directory (default: local_package_dir)")
	return cmd
}

func resolvePackage(cmd *cobra.Command, app *App, r resolver.Resolver, name, target string) error {
	out := app.output(cmd)
	target = app.cacheTarget(target)

	if err := r.Resolve(cmd.Context(), name, target, NewConsole(nil, cmd.ErrOrStderr())); err != nil {
		return err
	}

	out.Success("Package " + name + " saved to " + target)
	return nil
}

func newPackageExtractCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <archive> [target-dir]",
		Short: "Extract a .tar.gz package into the cache",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := app.output(cmd)

			targetDir := app.cfg.CacheDir
			if len(args) == 2 {
				targetDir = app.cacheTarget(args[1])
			}

			d := archive.NewTarGz(app.logger)
			if err := d.Decompress(cmd.Context(), app.cacheTarget(args[0]), targetDir, NewConsole(nil, cmd.ErrOrStderr())); err != nil {
				return err
			}

			out.Success("Extracted to " + targetDir)
			return nil
		},
	}
}
