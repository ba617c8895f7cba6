package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_xmrkeys() {
    local cur prev words cword
    _init_completion || return

    local commands="decrypt recover info keyring sessions help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands -v --verbose" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        decrypt)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-o --force --hex --no-keyring" -- "$cur"))
            else
                _filedir
            fi
            ;;
        recover)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-w --restart --save-keyring" -- "$cur"))
            else
                _filedir
            fi
            ;;
        info)
            _filedir
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            else
                _filedir
            fi
            ;;
        sessions)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "list clear compact" -- "$cur"))
            else
                _filedir
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _xmrkeys xmrkeys
`

const zshCompletion = `#compdef xmrkeys

_xmrkeys() {
    local -a commands
    commands=(
        'decrypt:Decrypt a wallet keys file'
        'recover:Search a candidate list for the wallet password'
        'info:Show the wallet keys file header'
        'keyring:Manage password in OS keyring'
        'sessions:Manage saved recovery sessions'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'xmrkeys commands' commands
            ;;
        args)
            case "${words[2]}" in
                decrypt)
                    _arguments \
                        '-o[Write plaintext to file]:output file:_files' \
                        '--force[Overwrite an existing output file]' \
                        '--hex[Hex-encode the plaintext]' \
                        '--no-keyring[Do not use the OS keyring]' \
                        '*:wallet file:_files'
                    ;;
                recover)
                    _arguments \
                        '-w[Number of workers]:workers:' \
                        '--restart[Ignore saved progress]' \
                        '--save-keyring[Save the found password to the keyring]' \
                        '*:file:_files'
                    ;;
                info)
                    _arguments '*:wallet file:_files'
                    ;;
                keyring)
                    _arguments '1:subcommand:(save delete status)' '2:wallet file:_files'
                    ;;
                sessions)
                    _arguments '1:subcommand:(list clear compact)' '2:wallet file:_files'
                    ;;
                help)
                    _describe -t commands 'xmrkeys commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_xmrkeys "$@"
`

const fishCompletion = `# xmrkeys fish completions

set -l commands decrypt recover info keyring sessions help completion

complete -c xmrkeys -f

# Commands
complete -c xmrkeys -n "not __fish_seen_subcommand_from $commands" -a decrypt -d 'Decrypt a wallet keys file'
complete -c xmrkeys -n "not __fish_seen_subcommand_from $commands" -a recover -d 'Search candidates for the password'
complete -c xmrkeys -n "not __fish_seen_subcommand_from $commands" -a info -d 'Show wallet header'
complete -c xmrkeys -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c xmrkeys -n "not __fish_seen_subcommand_from $commands" -a sessions -d 'Manage recovery sessions'
complete -c xmrkeys -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c xmrkeys -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# decrypt flags and files
complete -c xmrkeys -n "__fish_seen_subcommand_from decrypt" -s o -r -d 'Write plaintext to file'
complete -c xmrkeys -n "__fish_seen_subcommand_from decrypt" -l force -d 'Overwrite existing output'
complete -c xmrkeys -n "__fish_seen_subcommand_from decrypt" -l hex -d 'Hex-encode plaintext'
complete -c xmrkeys -n "__fish_seen_subcommand_from decrypt" -l no-keyring -d 'Do not use the keyring'
complete -c xmrkeys -n "__fish_seen_subcommand_from decrypt info" -F

# recover flags and files
complete -c xmrkeys -n "__fish_seen_subcommand_from recover" -s w -r -d 'Number of workers'
complete -c xmrkeys -n "__fish_seen_subcommand_from recover" -l restart -d 'Ignore saved progress'
complete -c xmrkeys -n "__fish_seen_subcommand_from recover" -l save-keyring -d 'Save found password'
complete -c xmrkeys -n "__fish_seen_subcommand_from recover" -F

# keyring and sessions subcommands
complete -c xmrkeys -n "__fish_seen_subcommand_from keyring" -a "save delete status"
complete -c xmrkeys -n "__fish_seen_subcommand_from sessions" -a "list clear compact"

# help completions
complete -c xmrkeys -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c xmrkeys -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
