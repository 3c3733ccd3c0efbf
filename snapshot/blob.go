// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package snapshot

import (
	"fmt"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// createBlobFromContent hashes content into the object database and
// returns its blob hash.
func createBlobFromContent(repo *git.Repository, content []byte) (plumbing.Hash, error) {
	obj := repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("snapshot: get object writer: %w", err)
	}
	if _, err := writer.Write(content); err != nil {
		_ = writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("snapshot: write blob content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("snapshot: close blob writer: %w", err)
	}

	hash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("snapshot: store blob object: %w", err)
	}
	return hash, nil
}

// createBlobFromFile reads path, hashes it, and reports the filemode the
// tree entry should carry (regular, executable, or symlink).
func createBlobFromFile(repo *git.Repository, path string) (plumbing.Hash, filemode.FileMode, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return plumbing.ZeroHash, 0, fmt.Errorf("snapshot: stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return plumbing.ZeroHash, 0, fmt.Errorf("snapshot: read symlink %s: %w", path, err)
		}
		hash, err := createBlobFromContent(repo, []byte(target))
		return hash, filemode.Symlink, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return plumbing.ZeroHash, 0, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	hash, err := createBlobFromContent(repo, content)
	if err != nil {
		return plumbing.ZeroHash, 0, err
	}
	mode := filemode.Regular
	if info.Mode()&0o111 != 0 {
		mode = filemode.Executable
	}
	return hash, mode, nil
}
