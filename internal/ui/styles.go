package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	userColor    = color.New(color.FgHiBlue)
	replyColor   = color.New(color.FgHiYellow)
)

var bannerStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("86")).
	Padding(0, 2).
	Bold(true)

var errorBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("196")).
	Padding(0, 1).
	Width(60)
