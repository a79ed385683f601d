// Package scaffold provides the starter configuration written by --init-config.
package scaffold

// ConfigTemplate is the starter config.toml. Every entry is commented out so
// the file loads as an empty configuration until edited.
const ConfigTemplate = `# ppi configuration
#
# Each key under [subcommands.skeletons] and [subcommands.scripts] becomes a
# subcommand. A name may appear in only one of the two tables.

[subcommands.skeletons]
# ppi <name> <output_dir> clones the repository, checks out the branch and
# squashes its history into a single "initialized from <name> skeleton" commit.
#
# lib = { source = "https://github.com/you/lib-skeleton.git", branch = "main" }
# cli = ["git@github.com:you/cli-skeleton.git", "develop"]
# web = "https://github.com/you/web-skeleton.git"

[subcommands.scripts]
# ppi <name> [args...] runs the executable with the remaining arguments and
# exits with its status.
#
# fmt = "~/bin/format-project"
# lint = { path = "/usr/local/bin/project-lint" }
`
