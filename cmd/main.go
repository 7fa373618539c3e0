// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	bcparser "github.com/zsqw123/classdex"
)

var (
	verbose  bool
	header   bool
	pool     bool
	members  bool
	strTable bool
	classes  bool
	insns    bool
	all      bool
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mnemonicStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	commentStyle  = lipgloss.NewStyle().Faint(true)
)

func prettyPrint(buff []byte) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, buff, "", "\t")
	if err != nil {
		log.Println("JSON parse error: ", err)
		return string(buff)
	}

	return prettyJSON.String()
}

func isDirectory(path string) bool {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fileInfo.IsDir()
}

func parseFile(filename string, cmd *cobra.Command) {
	if verbose {
		log.Printf("Processing filename %s", filename)
	}

	file, err := bcparser.New(filename, &bcparser.Options{})
	if err != nil {
		log.Printf("Error while opening file: %s, reason: %s", filename, err)
		return
	}
	defer file.Close()

	err = file.Parse()
	if err != nil {
		log.Printf("Error while parsing file: %s, reason: %s", filename, err)
		return
	}

	switch file.Kind {
	case bcparser.KindClass:
		dumpClass(file, cmd)
	case bcparser.KindDex:
		dumpDex(file, cmd)
	}
}

func dumpClass(file *bcparser.File, cmd *cobra.Command) {
	node, err := file.Node()
	if err != nil {
		log.Printf("Error while resolving class: %s", err)
		return
	}

	wantHeader, _ := cmd.Flags().GetBool("header")
	if wantHeader || all {
		fmt.Println(headingStyle.Render(node.Name))
		fmt.Printf("version: %d.%d access: %v\n",
			node.MajorVersion, node.MinorVersion,
			bcparser.PrettyClassAccessFlags(node.Access))
	}

	wantPool, _ := cmd.Flags().GetBool("pool")
	if wantPool || all {
		for i, entry := range file.Class.ConstantPool {
			name, _ := bcparser.PoolTagName(entry.Tag)
			fmt.Printf("#%d = %s\n", i, name)
		}
	}

	wantMembers, _ := cmd.Flags().GetBool("members")
	if wantMembers || all {
		for _, field := range node.Fields {
			fields, _ := json.Marshal(field)
			fmt.Println(prettyPrint(fields))
		}
		for _, method := range node.Methods {
			fmt.Println(headingStyle.Render(method.Name + method.Desc))
			wantInsns, _ := cmd.Flags().GetBool("insns")
			if (wantInsns || all) && method.Code != nil {
				dumpJVMInsns(method.Code)
			}
		}
	}
}

func dumpJVMInsns(code *bcparser.CodeBodyNode) {
	for _, insn := range code.Instructions {
		switch n := insn.(type) {
		case bcparser.Insn:
			name, ok := bcparser.JVMOpcodeName(n.Opcode)
			if !ok {
				name = fmt.Sprintf("op_%#02x", n.Opcode)
			}
			fmt.Printf("  %s\n", mnemonicStyle.Render(name))
		case bcparser.FieldInsn:
			name, _ := bcparser.JVMOpcodeName(n.Opcode)
			fmt.Printf("  %s %s\n", mnemonicStyle.Render(name),
				commentStyle.Render(n.Owner+"."+n.Name+" : "+n.Desc))
		case bcparser.MethodInsn:
			name, _ := bcparser.JVMOpcodeName(n.Opcode)
			fmt.Printf("  %s %s\n", mnemonicStyle.Render(name),
				commentStyle.Render(n.Owner+"."+n.Name+n.Desc))
		default:
			out, _ := json.Marshal(insn)
			fmt.Printf("  %s\n", out)
		}
	}
}

func dumpDex(file *bcparser.File, cmd *cobra.Command) {
	dex := file.Dex

	wantHeader, _ := cmd.Flags().GetBool("header")
	if wantHeader || all {
		hdr, _ := json.Marshal(dex.Header)
		fmt.Println(prettyPrint(hdr))
	}

	wantStrings, _ := cmd.Flags().GetBool("strings")
	if wantStrings || all {
		for i, id := range dex.StringIDs {
			value, err := dex.GetStringData(id.StringDataOff)
			if err != nil {
				log.Printf("string %d unreadable: %s", i, err)
				continue
			}
			fmt.Printf("string[%d] = %q\n", i, value.Value)
		}
	}

	wantClasses, _ := cmd.Flags().GetBool("classes")
	if wantClasses || all {
		for i := range dex.ClassDefs {
			element, err := dex.GetClassElementAt(i)
			if err != nil {
				log.Printf("class def unreadable: %s", err)
				continue
			}
			fmt.Println(headingStyle.Render(element.Descriptor))
			wantInsns, _ := cmd.Flags().GetBool("insns")
			if wantInsns || all {
				dumpDexMethods(dex, element)
			}
		}
	}
}

func dumpDexMethods(dex *bcparser.DexFile, element *bcparser.ClassElement) {
	methods := append([]bcparser.MethodElement{}, element.DirectMethods...)
	methods = append(methods, element.VirtualMethods...)
	for _, method := range methods {
		fmt.Printf("  %s\n", headingStyle.Render(method.Name))
		if method.CodeOff == 0 {
			continue
		}
		code, err := dex.GetCodeItem(method.CodeOff)
		if err != nil {
			log.Printf("code item unreadable: %s", err)
			continue
		}
		for _, insn := range code.Insns.Insns {
			out, _ := json.Marshal(insn)
			fmt.Printf("    %s\n", out)
		}
	}
}

func parse(cmd *cobra.Command, args []string) {
	filePath := args[0]

	// filePath points to a file.
	if !isDirectory(filePath) {
		parseFile(filePath, cmd)

	} else {
		// filePath points to a directory,
		// walk recursively through all files.
		fileList := []string{}
		filepath.Walk(filePath, func(path string, f os.FileInfo, err error) error {
			if !isDirectory(path) {
				fileList = append(fileList, path)
			}
			return nil
		})

		for _, file := range fileList {
			parseFile(file, cmd)
		}
	}
}

func main() {

	var rootCmd = &cobra.Command{
		Use:   "bcdumper",
		Short: "A class and dex file parser",
		Long:  "A JVM class file and Android DEX parser built by Saferwall",
		Run: func(cmd *cobra.Command, args []string) {
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Long:  "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print("You are using version 0.0.1")
		},
	}

	var dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Dumps the file",
		Long:  "Dumps interesting structures of a class or DEX file",
		Args:  cobra.MinimumNArgs(1),
		Run:   parse,
	}

	// Init root command.
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dumpCmd)

	// Init flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	dumpCmd.Flags().BoolVarP(&header, "header", "", false, "Dump the container header")
	dumpCmd.Flags().BoolVarP(&pool, "pool", "", false, "Dump the constant pool")
	dumpCmd.Flags().BoolVarP(&members, "members", "", false, "Dump fields and methods")
	dumpCmd.Flags().BoolVarP(&strTable, "strings", "", false, "Dump the string table")
	dumpCmd.Flags().BoolVarP(&classes, "classes", "", false, "Dump class definitions")
	dumpCmd.Flags().BoolVarP(&insns, "insns", "", false, "Dump instructions")
	dumpCmd.Flags().BoolVarP(&all, "all", "", false, "Dump everything")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

}
